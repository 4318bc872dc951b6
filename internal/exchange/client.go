// Package exchange provides the calendar-service client. The service speaks
// a SOAP-style XML API; this client covers the three operations the sync
// engine needs: login probe, event creation and event cancellation.
package exchange

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/absence-sync/backend/internal/remote"
)

// responseCodeNotFound is returned by the service when the item is already
// gone. Cancellation treats it as success.
const responseCodeNotFound = "ErrorItemNotFound"

// Client talks to the calendar service on behalf of one deployment
// (endpoint + NT domain). Credentials are supplied per call since each
// identity connects as itself.
type Client struct {
	url        string
	domain     string
	httpClient *http.Client
}

// NewClient creates a calendar-service client. The endpoint must be the
// .asmx service URL, not the server root.
func NewClient(serviceURL, domain string, timeout time.Duration) (*Client, error) {
	if !strings.HasSuffix(serviceURL, ".asmx") {
		return nil, fmt.Errorf("exchange URL must end with .asmx (did you mean %q?)",
			strings.TrimRight(serviceURL, "/")+"/EWS/Exchange.asmx")
	}

	return &Client{
		url:        serviceURL,
		domain:     domain,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// EventRequest describes a calendar event to create remotely.
type EventRequest struct {
	Subject   string
	Body      string
	Location  string
	Attendees []string
	Start     time.Time
	End       time.Time
}

// Probe checks that the given credentials can reach the service by finding
// the root folder. Used as the login test.
func (c *Client) Probe(ctx context.Context, username, password string) error {
	envelope := soapEnvelope(`
		<m:FindFolder Traversal="Shallow">
			<m:FolderShape><t:BaseShape>IdOnly</t:BaseShape></m:FolderShape>
			<m:ParentFolderIds><t:DistinguishedFolderId Id="root"/></m:ParentFolderIds>
		</m:FindFolder>`)

	_, err := c.call(ctx, username, password, envelope)
	return err
}

// CreateEvent creates a calendar event remotely and returns the identifier
// the service assigned to it.
func (c *Client) CreateEvent(ctx context.Context, username, password string, event EventRequest) (string, error) {
	var attendees strings.Builder
	for _, a := range event.Attendees {
		fmt.Fprintf(&attendees, `<t:RequiredAttendees><t:Attendee><t:Mailbox><t:EmailAddress>%s</t:EmailAddress></t:Mailbox></t:Attendee></t:RequiredAttendees>`, xmlEscape(a))
	}

	envelope := soapEnvelope(fmt.Sprintf(`
		<m:CreateItem SendMeetingInvitations="SendToNone">
			<m:Items>
				<t:CalendarItem>
					<t:Subject>%s</t:Subject>
					<t:Body BodyType="Text">%s</t:Body>
					<t:Start>%s</t:Start>
					<t:End>%s</t:End>
					<t:Location>%s</t:Location>
					%s
				</t:CalendarItem>
			</m:Items>
		</m:CreateItem>`,
		xmlEscape(event.Subject), xmlEscape(event.Body),
		event.Start.Format(time.RFC3339), event.End.Format(time.RFC3339),
		xmlEscape(event.Location), attendees.String(),
	))

	body, err := c.call(ctx, username, password, envelope)
	if err != nil {
		return "", err
	}

	id, err := extractItemID(body)
	if err != nil {
		return "", fmt.Errorf("%w: create response carried no item id", remote.ErrTransport)
	}

	return id, nil
}

// CancelEvent deletes a previously created event. An already-deleted event
// reports remote.ErrNotFound, which callers may treat as success.
func (c *Client) CancelEvent(ctx context.Context, username, password, remoteID string) error {
	envelope := soapEnvelope(fmt.Sprintf(`
		<m:DeleteItem DeleteType="MoveToDeletedItems" SendMeetingCancellations="SendToNone">
			<m:ItemIds><t:ItemId Id="%s"/></m:ItemIds>
		</m:DeleteItem>`, xmlEscape(remoteID)))

	body, err := c.call(ctx, username, password, envelope)
	if err != nil {
		return err
	}

	if code := extractResponseCode(body); code == responseCodeNotFound {
		return fmt.Errorf("%w: event %s", remote.ErrNotFound, remoteID)
	}

	return nil
}

// call posts a SOAP envelope with the identity's credentials and returns the
// response body. Status classification: 401/403 are authentication errors,
// any other non-200 (or connection failure) is a transport error.
func (c *Client) call(ctx context.Context, username, password string, envelope string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("creating service request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.SetBasicAuth(c.domain+`\`+username, password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calendar service: %v", remote.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading service response: %v", remote.ErrTransport, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: calendar service rejected credentials for %s", remote.ErrAuthentication, username)
	default:
		return nil, fmt.Errorf("%w: calendar service returned status %d", remote.ErrTransport, resp.StatusCode)
	}
}

// soapEnvelope wraps an operation body in the standard envelope.
func soapEnvelope(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"` +
		` xmlns:t="http://schemas.microsoft.com/exchange/services/2006/types"` +
		` xmlns:m="http://schemas.microsoft.com/exchange/services/2006/messages">` +
		`<soap:Body>` + body + `</soap:Body></soap:Envelope>`
}

// extractItemID pulls the first ItemId Id attribute out of a response.
// Token scanning keeps us independent of the full response schema.
func extractItemID(body []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "ItemId" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "Id" {
				return attr.Value, nil
			}
		}
	}
}

// extractResponseCode pulls the first ResponseCode element text, or "".
func extractResponseCode(body []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err != nil {
			return ""
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "ResponseCode" {
			continue
		}
		var code string
		if err := decoder.DecodeElement(&code, &start); err != nil {
			return ""
		}
		return code
	}
}

// xmlEscape escapes a value for embedding in an envelope.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
