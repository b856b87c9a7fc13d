package tsxml

import "encoding/xml"

// Request/response envelopes for the remote scheduling API. Only the slices
// of the API surface schedscope talks to are modeled.

// SigninRequest is the auth payload.
type SigninRequest struct {
	XMLName     xml.Name    `xml:"tsRequest"`
	Credentials Credentials `xml:"credentials"`
}

type Credentials struct {
	Name     string `xml:"name,attr,omitempty"`
	Password string `xml:"password,attr,omitempty"`
	Token    string `xml:"token,attr,omitempty"`
	Site     *Site  `xml:"site,omitempty"`
}

type Site struct {
	ContentURL string `xml:"contentUrl,attr"`
}

// SigninResponse carries the session token.
type SigninResponse struct {
	XMLName     xml.Name    `xml:"tsResponse"`
	Credentials Credentials `xml:"credentials"`
}

// TaskListResponse is one page of extract-refresh tasks.
type TaskListResponse struct {
	XMLName    xml.Name   `xml:"tsResponse"`
	Pagination Pagination `xml:"pagination"`
	Tasks      []TaskItem `xml:"tasks>task"`
}

type Pagination struct {
	PageNumber     int `xml:"pageNumber,attr"`
	PageSize       int `xml:"pageSize,attr"`
	TotalAvailable int `xml:"totalAvailable,attr"`
}

// TaskItem is one recurring extract-refresh task record.
type TaskItem struct {
	ID                     string   `xml:"id,attr"`
	Priority               int      `xml:"priority,attr"`
	ConsecutiveFailedCount int      `xml:"consecutiveFailedCount,attr"`
	NextRunAt              string   `xml:"nextRunAt,attr"`
	Item                   RefItem  `xml:"item"`
	Schedule               Document `xml:"schedule"`
}

// RefItem identifies the workbook or datasource the task refreshes.
type RefItem struct {
	ID   string `xml:"id,attr"`
	Type string `xml:"type,attr"`
}

// UpdateScheduleRequest is the write-path envelope for a schedule edit.
type UpdateScheduleRequest struct {
	XMLName  xml.Name  `xml:"tsRequest"`
	Schedule *Document `xml:"schedule"`
}

// ErrorResponse is the API's error envelope.
type ErrorResponse struct {
	XMLName xml.Name `xml:"tsResponse"`
	Error   APIError `xml:"error"`
}

type APIError struct {
	Code    string `xml:"code,attr"`
	Summary string `xml:"summary"`
	Detail  string `xml:"detail"`
}
