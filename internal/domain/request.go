package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RequestType enumerates the services a user can ask for.
type RequestType string

const (
	RequestTypeAppointment            RequestType = "appointment"
	RequestTypeConsultation           RequestType = "consultation"
	RequestTypeMedicalReport          RequestType = "medical_request"
	RequestTypeMedicalExcuse          RequestType = "medical_excuse"
	RequestTypeReviewCertificate      RequestType = "review_certificate"
	RequestTypePatientCompanionReport RequestType = "patient_companion_report"
)

// RequestTypes lists every request type in display order.
var RequestTypes = []RequestType{
	RequestTypeAppointment,
	RequestTypeConsultation,
	RequestTypeMedicalReport,
	RequestTypeMedicalExcuse,
	RequestTypeReviewCertificate,
	RequestTypePatientCompanionReport,
}

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	for _, known := range RequestTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no admin status update may leave s.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// pending is re-entered only by detaching a file, never through a status update.
var allowedTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
}

// CanTransition reports whether a status update may move a request from current to next.
func CanTransition(current, next RequestStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ProcessedData is the admin-supplied outcome attached to a request.
type ProcessedData struct {
	HospitalName    string     `json:"hospitalName,omitempty"`
	DoctorName      string     `json:"doctorName,omitempty"`
	DoctorSpecialty string     `json:"doctorSpecialty,omitempty"`
	DoctorPhone     string     `json:"doctorPhone,omitempty"`
	AppointmentDate string     `json:"appointmentDate,omitempty"`
	AppointmentTime string     `json:"appointmentTime,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	UploadedBy      string     `json:"uploadedBy,omitempty"`
	UploadDate      *time.Time `json:"uploadDate,omitempty"`
}

// AppointmentOutcome holds the fields required to complete an appointment request.
type AppointmentOutcome struct {
	HospitalName    string `json:"hospitalName" validate:"required"`
	DoctorName      string `json:"doctorName" validate:"required"`
	DoctorSpecialty string `json:"doctorSpecialty" validate:"required"`
	DoctorPhone     string `json:"doctorPhone" validate:"required"`
	AppointmentDate string `json:"appointmentDate" validate:"required"`
	AppointmentTime string `json:"appointmentTime" validate:"required"`
}

// ConsultationOutcome holds the fields required to complete a consultation request.
type ConsultationOutcome struct {
	DoctorName      string `json:"doctorName" validate:"required"`
	DoctorSpecialty string `json:"doctorSpecialty" validate:"required"`
	DoctorPhone     string `json:"doctorPhone" validate:"required"`
}

// Request is a unit of work submitted by a user and tracked through its status lifecycle.
type Request struct {
	ID            string
	UserID        string
	Type          RequestType
	Data          RequestData
	Status        RequestStatus
	CreatedDate   time.Time
	UpdatedDate   *time.Time
	ProcessedData *ProcessedData
	PDFGenerated  bool
	PDFData       *PDFData
}

type requestDocument struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Type          RequestType     `json:"type"`
	Data          json.RawMessage `json:"data"`
	Status        RequestStatus   `json:"status"`
	CreatedDate   time.Time       `json:"createdDate"`
	UpdatedDate   *time.Time      `json:"updatedDate,omitempty"`
	ProcessedData *ProcessedData  `json:"processedData,omitempty"`
	PDFGenerated  bool            `json:"pdfGenerated"`
	PDFData       *PDFData        `json:"pdfData,omitempty"`
}

// MarshalJSON writes the payload under "data" next to its "type" discriminator.
func (r Request) MarshalJSON() ([]byte, error) {
	var data json.RawMessage = []byte("{}")
	if r.Data != nil {
		raw, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(requestDocument{
		ID:            r.ID,
		UserID:        r.UserID,
		Type:          r.Type,
		Data:          data,
		Status:        r.Status,
		CreatedDate:   r.CreatedDate,
		UpdatedDate:   r.UpdatedDate,
		ProcessedData: r.ProcessedData,
		PDFGenerated:  r.PDFGenerated,
		PDFData:       r.PDFData,
	})
}

// UnmarshalJSON decodes "data" into the payload shape named by "type".
func (r *Request) UnmarshalJSON(b []byte) error {
	var doc requestDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	data, err := DecodeRequestData(doc.Type, doc.Data)
	if err != nil {
		return fmt.Errorf("request %s: %w", doc.ID, err)
	}
	*r = Request{
		ID:            doc.ID,
		UserID:        doc.UserID,
		Type:          doc.Type,
		Data:          data,
		Status:        doc.Status,
		CreatedDate:   doc.CreatedDate,
		UpdatedDate:   doc.UpdatedDate,
		ProcessedData: doc.ProcessedData,
		PDFGenerated:  doc.PDFGenerated,
		PDFData:       doc.PDFData,
	}
	return nil
}

// RequestStatistics aggregates request counts for the admin dashboard.
type RequestStatistics struct {
	TotalRequests      int                 `json:"totalRequests"`
	PendingRequests    int                 `json:"pendingRequests"`
	InProgressRequests int                 `json:"inProgressRequests"`
	CompletedRequests  int                 `json:"completedRequests"`
	CancelledRequests  int                 `json:"cancelledRequests"`
	TodayRequests      int                 `json:"todayRequests"`
	ByType             map[RequestType]int `json:"byType"`
	TotalUploadedFiles int                 `json:"totalUploadedFiles"`
	TotalFileSize      int64               `json:"totalFileSize"`
}
