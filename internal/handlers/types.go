package handlers

// PubSubRequest is the push delivery envelope from the mail watcher
type PubSubRequest struct {
	Message struct {
		Data string `json:"data"`
	} `json:"message" binding:"required"`
}

// PubSubPayload is the decoded notification inside a push delivery
type PubSubPayload struct {
	GmailID string `json:"gmailId"`
}

// SyncRequest asks to process a named set of emails or the unprocessed
// backlog
type SyncRequest struct {
	EmailIDs  []string `json:"emailIds"`
	SyncAll   bool     `json:"syncAll"`
	Limit     int      `json:"limit"`
	UserEmail string   `json:"userEmail"`
}

// SyncError is one failed email inside a sync run
type SyncError struct {
	EmailID string `json:"emailId"`
	Error   string `json:"error"`
}

// SyncResponse summarizes a sync run
type SyncResponse struct {
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Errors    []SyncError `json:"errors"`
}

// BatchRequest asks to process an explicit list of email ids
type BatchRequest struct {
	EmailIDs  []string `json:"emailIds" binding:"required"`
	UserEmail string   `json:"userEmail"`
}

// BatchItemResponse is one email's outcome inside a batch response
type BatchItemResponse struct {
	GmailID string      `json:"gmailId"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StatusRequest asks for processing state per email id
type StatusRequest struct {
	EmailIDs []string `json:"emailIds" binding:"required"`
}

// EmailStatus is the processing state of one email. The zero value is the
// synthesized entry for ids the store has never seen.
type EmailStatus struct {
	Exists            bool   `json:"exists"`
	Processed         bool   `json:"processed"`
	IsJobRelated      *bool  `json:"is_job_related"`
	EmailType         string `json:"email_type,omitempty"`
	Company           string `json:"company,omitempty"`
	JobID             *uint  `json:"job_id,omitempty"`
	ProcessingVersion string `json:"processing_version,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
