package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/notify"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

const (
	subjectPrefix = "[Subcover] "
	notSpecified  = "Not specified"
	mailFooter    = "\n\nThis message was sent by Subcover. Please do not reply."
)

// Notification event names.
const (
	EventRequestCreated = "request_created"
	EventRequestFilled  = "request_filled"
	EventAbsenceReport  = "absence_report"
)

// NotificationMessage is one delivery on one channel to one recipient.
type NotificationMessage struct {
	Event       string         `json:"event"`
	Token       string         `json:"token"`
	Channel     notify.Channel `json:"channel"`
	RecipientID string         `json:"recipient_id"`
	Recipient   string         `json:"recipient"`
	Subject     string         `json:"subject,omitempty"`
	Body        string         `json:"body"`
}

// CoverageView carries the display values shared by every template.
type CoverageView struct {
	Request     models.CoverageRequest
	Requester   models.Requester
	Substitute  *models.Candidate
	GradeName   string
	SubjectName string
	AcceptURL   string
}

func (v CoverageView) date() string {
	return v.Request.Date.Format("Monday, January 2, 2006")
}

func (v CoverageView) timeText() string {
	if rng, err := timerange.Parse(v.Request.TimeRange); err == nil {
		return rng.Render12h()
	}
	return v.Request.TimeRange
}

func (v CoverageView) details() string {
	lines := []string{
		"Teacher: " + v.Requester.FullName,
		"Date: " + v.date(),
		"Time: " + v.timeText(),
		"Grade: " + orNotSpecified(v.GradeName),
		"Subject: " + orNotSpecified(v.SubjectName),
	}
	if v.Request.Details != "" {
		lines = append(lines, "Details: "+v.Request.Details)
	}
	return strings.Join(lines, "\n")
}

func (v CoverageView) substituteName() string {
	if v.Substitute == nil {
		return "a substitute"
	}
	return v.Substitute.FullName
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

// channelMessages renders an email and, when a phone is on file and sms is
// non-empty, an SMS.
func channelMessages(event, token, recipientID string, contact models.Contact, subject, email, sms string) []NotificationMessage {
	out := make([]NotificationMessage, 0, 2)
	if contact.Email != "" {
		out = append(out, NotificationMessage{
			Event: event, Token: token, Channel: notify.ChannelEmail,
			RecipientID: recipientID, Recipient: contact.Email,
			Subject: subjectPrefix + subject, Body: email + mailFooter,
		})
	}
	if sms != "" && contact.HasPhone() {
		out = append(out, NotificationMessage{
			Event: event, Token: token, Channel: notify.ChannelSMS,
			RecipientID: recipientID, Recipient: *contact.Phone,
			Body: subjectPrefix + sms,
		})
	}
	return out
}

// CandidateAvailableMessages tells an eligible candidate about a new request.
func CandidateAvailableMessages(v CoverageView, c models.Candidate) []NotificationMessage {
	email := fmt.Sprintf("Hello %s,\n\nA new coverage request matches your preferences.\n\n%s\n\nAccept it here: %s",
		c.FullName, v.details(), v.AcceptURL)
	sms := fmt.Sprintf("New request: %s, %s, %s. Grade %s, Subject %s. Accept: %s",
		v.Requester.FullName, v.Request.Date.Format(timerange.DateLayout), v.timeText(),
		orNotSpecified(v.GradeName), orNotSpecified(v.SubjectName), v.AcceptURL)
	return channelMessages(EventRequestCreated, v.Request.Token, c.ID, c.Contact, "New coverage request available", email, sms)
}

// AdminCreatedMessages tells an in-scope admin a request was posted.
func AdminCreatedMessages(v CoverageView, a models.Admin) []NotificationMessage {
	email := fmt.Sprintf("Hello %s,\n\nA coverage request was created.\n\n%s\nReason: %s",
		a.FullName, v.details(), orNotSpecified(v.Request.Reason))
	sms := fmt.Sprintf("Request created: %s, %s, %s. Reason %s",
		v.Requester.FullName, v.Request.Date.Format(timerange.DateLayout), v.timeText(), orNotSpecified(v.Request.Reason))
	return channelMessages(EventRequestCreated, v.Request.Token, a.ID, a.Contact, "Coverage request created", email, sms)
}

// RequesterCreatedMessages confirms a posted request to its requester.
func RequesterCreatedMessages(v CoverageView) []NotificationMessage {
	email := fmt.Sprintf("Hello %s,\n\nYour coverage request was submitted.\n\n%s\n\nYou will be notified when a substitute accepts.",
		v.Requester.FullName, v.details())
	sms := fmt.Sprintf("Request submitted for %s, %s. We will notify you when it is filled.",
		v.Request.Date.Format(timerange.DateLayout), v.timeText())
	return channelMessages(EventRequestCreated, v.Request.Token, v.Requester.ID, v.Requester.Contact, "Coverage request submitted", email, sms)
}

// AdminFilledMessages tells an in-scope admin a request was filled.
func AdminFilledMessages(v CoverageView, a models.Admin) []NotificationMessage {
	email := fmt.Sprintf("Hello %s,\n\nA coverage request was filled by %s.\n\n%s",
		a.FullName, v.substituteName(), v.details())
	sms := fmt.Sprintf("Filled: %s, %s, %s, by %s",
		v.Requester.FullName, v.Request.Date.Format(timerange.DateLayout), v.timeText(), v.substituteName())
	return channelMessages(EventRequestFilled, v.Request.Token, a.ID, a.Contact, "Coverage request filled", email, sms)
}

// RequesterFilledMessages tells the requester who is covering. Email only.
func RequesterFilledMessages(v CoverageView) []NotificationMessage {
	email := fmt.Sprintf("Hello %s,\n\nGood news: %s accepted your coverage request.\n\n%s",
		v.Requester.FullName, v.substituteName(), v.details())
	return channelMessages(EventRequestFilled, v.Request.Token, v.Requester.ID, v.Requester.Contact, "Your coverage request was filled", email, "")
}

// CandidateConfirmationMessages confirms the assignment to the accepting
// candidate. Email only.
func CandidateConfirmationMessages(v CoverageView) []NotificationMessage {
	if v.Substitute == nil {
		return nil
	}
	email := fmt.Sprintf("Hello %s,\n\nYou are confirmed for this assignment.\n\n%s",
		v.Substitute.FullName, v.details())
	return channelMessages(EventRequestFilled, v.Request.Token, v.Substitute.ID, v.Substitute.Contact, "Assignment confirmed", email, "")
}

// AbsenceReportReadyMessages sends the requester the absence form link.
// Email only.
func AbsenceReportReadyMessages(v CoverageView, url string) []NotificationMessage {
	email := fmt.Sprintf("Hello %s,\n\nYour absence report for %s is ready. Download it here: %s\n\nThe link expires, so save a copy.",
		v.Requester.FullName, v.date(), url)
	return channelMessages(EventAbsenceReport, v.Request.Token, v.Requester.ID, v.Requester.Contact, "Absence report ready", email, "")
}
