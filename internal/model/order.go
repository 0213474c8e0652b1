// Package model contains the wire types exchanged with the order backend.
// Orders are read-only to the client; every reload replaces them wholesale.
package model

import (
	"fmt"
	"strings"
)

// Order is one sales order awaiting a document attachment.
type Order struct {
	OrderID          OrderID           `json:"orderId"`
	DealerName       Text              `json:"dealerName,omitempty"`
	Location         Text              `json:"location,omitempty"`
	MarketingPerson  Text              `json:"marketingPerson,omitempty"`
	CRM              Text              `json:"crm,omitempty"`
	ConcernedOwner   Text              `json:"concernedOwner,omitempty"`
	Color            Color             `json:"color,omitempty"`
	PrimaryTimestamp Timestamp         `json:"primaryTimestamp"`
	Final            FinalSlot         `json:"final"`
	Additional       AdditionalSlots   `json:"additional"`
	ReturnedSegments []ReturnedSegment `json:"returnedSegments,omitempty"`
}

// FinalSlot is the order's single final-stage attachment slot.
type FinalSlot struct {
	Eligible bool   `json:"eligible"`
	URL      string `json:"url,omitempty"`
}

// AdditionalSlots lists the open additional-stage slots. Each URL is the
// natural key of its segment within the order.
type AdditionalSlots struct {
	Eligible    bool     `json:"eligible"`
	URLsPending []string `json:"urlsPending,omitempty"`
}

// HasURL reports whether url is one of the pending additional slots.
func (a AdditionalSlots) HasURL(url string) bool {
	for _, u := range a.URLsPending {
		if u == url {
			return true
		}
	}
	return false
}

// ReturnedSegment is a stage sent back by downstream review with a remark.
// Index 0 is the final stage; other indexes are additional stages by ordinal.
type ReturnedSegment struct {
	SegmentIndex int    `json:"segmentIndex"`
	SegmentLabel Text   `json:"segmentLabel,omitempty"`
	SegmentURL   string `json:"segmentUrl,omitempty"`
	Remark       Text   `json:"remark"`
}

// Label names the segment for display.
func (s ReturnedSegment) Label() string {
	if label := strings.TrimSpace(string(s.SegmentLabel)); label != "" {
		return label
	}
	if s.SegmentIndex == 0 {
		return "Final Order"
	}
	return fmt.Sprintf("Additional Order %d", s.SegmentIndex)
}

// Category is the normalized status tag of an order.
type Category string

const (
	CategoryRed     Category = "red"
	CategoryYellow  Category = "yellow"
	CategoryGreen   Category = "green"
	CategoryNeutral Category = "neutral"
)

// Color is the raw status tag supplied by the backend.
type Color string

// Category normalizes the tag; anything unknown is neutral.
func (c Color) Category() Category {
	switch Category(strings.ToLower(strings.TrimSpace(string(c)))) {
	case CategoryRed:
		return CategoryRed
	case CategoryYellow:
		return CategoryYellow
	case CategoryGreen:
		return CategoryGreen
	default:
		return CategoryNeutral
	}
}

// Label is the chip text: the raw tag, or "Unknown" when empty.
func (c Color) Label() string {
	if c == "" {
		return "Unknown"
	}
	return string(c)
}

// EncodedFile is the transport form of one attachment.
type EncodedFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Base64   string `json:"base64"`
}
