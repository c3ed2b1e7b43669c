package whatsapp

import (
	"encoding/xml"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// twimlResponse is the root document Twilio expects back from a webhook.
// Each Message element becomes one outbound WhatsApp message, delivered in
// document order.
type twimlResponse struct {
	XMLName  xml.Name       `xml:"Response"`
	Messages []twimlMessage `xml:"Message"`
}

type twimlMessage struct {
	Body string `xml:",chardata"`
}

// RenderTwiML serializes the ordered replies into a TwiML document.
// An empty reply list yields a valid empty <Response/>, which tells the
// provider to send nothing.
func RenderTwiML(replies []string) (string, error) {
	doc := twimlResponse{}
	for _, r := range replies {
		doc.Messages = append(doc.Messages, twimlMessage{Body: r})
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("twiml marshal: %w", err)
	}
	return xml.Header + string(out), nil
}

// SendTwiML writes the replies to the HTTP response as TwiML.
func SendTwiML(c *fiber.Ctx, replies []string) error {
	doc, err := RenderTwiML(replies)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.SendString(doc)
}
