// Package tsxml renders validated schedules into the XML wire format the
// remote scheduling API expects, and parses the API's responses back into
// the domain model. All schedule invariants live in the schedule package;
// this package only shapes bytes.
package tsxml

import (
	"encoding/xml"
	"fmt"

	"schedscope/internal/schedule"
)

// Document is the <schedule> wire element.
type Document struct {
	XMLName   xml.Name `xml:"schedule"`
	Frequency string   `xml:"frequency,attr"`
	Details   Details  `xml:"frequencyDetails"`
}

// Details carries the window times plus the interval list. The API requires
// explicit interval elements; absence never means "all".
type Details struct {
	Start     string     `xml:"start,attr"`
	End       string     `xml:"end,attr,omitempty"`
	Intervals []Interval `xml:"intervals>interval"`
}

// Interval is one firing selector. Exactly which attributes are set depends
// on the frequency: hours for the sub-day step, weekDay for day selection,
// monthDay for day-of-month values. Monthly ordinal schedules reuse the
// monthDay slot for the ordinal token ("First".."Fifth", "Last") and pair it
// with a weekDay in the same element.
type Interval struct {
	Hours    string `xml:"hours,attr,omitempty"`
	WeekDay  string `xml:"weekDay,attr,omitempty"`
	MonthDay string `xml:"monthDay,attr,omitempty"`
}

func wireTime(t schedule.TimeOfDay) string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// Encode renders the document as a standalone XML fragment.
func (d *Document) Encode() ([]byte, error) {
	return xml.MarshalIndent(d, "", "  ")
}

// Decode parses a <schedule> fragment.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode schedule xml: %w", err)
	}
	return &d, nil
}
