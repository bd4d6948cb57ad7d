package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/medical-portal/internal/domain"
)

// CreateRequestRequest payload. Data is decoded by type.
type CreateRequestRequest struct {
	Type domain.RequestType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

// ProcessedDataPayload is the admin outcome of a request.
type ProcessedDataPayload struct {
	HospitalName    string `json:"hospital_name"`
	DoctorName      string `json:"doctor_name"`
	DoctorSpecialty string `json:"doctor_specialty"`
	DoctorPhone     string `json:"doctor_phone"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes"`
}

// ToDomain converts the payload.
func (p ProcessedDataPayload) ToDomain() domain.ProcessedData {
	return domain.ProcessedData{
		HospitalName:    p.HospitalName,
		DoctorName:      p.DoctorName,
		DoctorSpecialty: p.DoctorSpecialty,
		DoctorPhone:     p.DoctorPhone,
		AppointmentDate: p.AppointmentDate,
		AppointmentTime: p.AppointmentTime,
		Notes:           p.Notes,
	}
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status        domain.RequestStatus  `json:"status"`
	ProcessedData *ProcessedDataPayload `json:"processed_data"`
}

// ProcessedDataResponse mirrors domain.ProcessedData.
type ProcessedDataResponse struct {
	ProcessedDataPayload
	UploadedBy string     `json:"uploaded_by,omitempty"`
	UploadDate *time.Time `json:"upload_date,omitempty"`
}

// PDFDataResponse describes the attached file.
type PDFDataResponse struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	MediaType     string    `json:"media_type"`
	Size          int64     `json:"size"`
	GeneratedDate time.Time `json:"generated_date"`
	Notes         string    `json:"notes,omitempty"`
}

// RequestResponse is the public view of a request.
type RequestResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	Type          domain.RequestType     `json:"type"`
	Data          domain.RequestData     `json:"data"`
	Status        domain.RequestStatus   `json:"status"`
	CreatedDate   time.Time              `json:"created_date"`
	UpdatedDate   *time.Time             `json:"updated_date,omitempty"`
	ProcessedData *ProcessedDataResponse `json:"processed_data,omitempty"`
	PDFGenerated  bool                   `json:"pdf_generated"`
	PDFData       *PDFDataResponse       `json:"pdf_data,omitempty"`
}

// FileResponse describes an uploaded file record.
type FileResponse struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	MediaType  string    `json:"media_type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"upload_date"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// RequestStatisticsResponse summarizes requests for the dashboard.
type RequestStatisticsResponse struct {
	TotalRequests      int                        `json:"total_requests"`
	PendingRequests    int                        `json:"pending_requests"`
	InProgressRequests int                        `json:"in_progress_requests"`
	CompletedRequests  int                        `json:"completed_requests"`
	CancelledRequests  int                        `json:"cancelled_requests"`
	TodayRequests      int                        `json:"today_requests"`
	ByType             map[domain.RequestType]int `json:"by_type"`
	TotalUploadedFiles int                        `json:"total_uploaded_files"`
	TotalFileSize      int64                      `json:"total_file_size"`
}

// NewRequestResponse maps a domain request.
func NewRequestResponse(r *domain.Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		Type:         r.Type,
		Data:         r.Data,
		Status:       r.Status,
		CreatedDate:  r.CreatedDate,
		UpdatedDate:  r.UpdatedDate,
		PDFGenerated: r.PDFGenerated,
	}
	if p := r.ProcessedData; p != nil {
		resp.ProcessedData = &ProcessedDataResponse{
			ProcessedDataPayload: ProcessedDataPayload{
				HospitalName:    p.HospitalName,
				DoctorName:      p.DoctorName,
				DoctorSpecialty: p.DoctorSpecialty,
				DoctorPhone:     p.DoctorPhone,
				AppointmentDate: p.AppointmentDate,
				AppointmentTime: p.AppointmentTime,
				Notes:           p.Notes,
			},
			UploadedBy: p.UploadedBy,
			UploadDate: p.UploadDate,
		}
	}
	if f := r.PDFData; f != nil {
		resp.PDFData = &PDFDataResponse{
			ID:            f.ID,
			FileName:      f.FileName,
			MediaType:     f.MediaType,
			Size:          f.Size,
			GeneratedDate: f.GeneratedDate,
			Notes:         f.Notes,
		}
	}
	return resp
}

// NewRequestList maps a slice of requests.
func NewRequestList(reqs []domain.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, NewRequestResponse(&reqs[i]))
	}
	return out
}

// NewFileList maps file records.
func NewFileList(files []domain.FileRecord) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, FileResponse{
			ID:         f.ID,
			RequestID:  f.RequestID,
			UserID:     f.UserID,
			FileName:   f.FileName,
			MediaType:  f.MediaType,
			Size:       f.Size,
			UploadDate: f.UploadDate,
			UploadedBy: f.UploadedBy,
			Notes:      f.Notes,
		})
	}
	return out
}

// NewRequestStatisticsResponse maps request statistics.
func NewRequestStatisticsResponse(s *domain.RequestStatistics) RequestStatisticsResponse {
	return RequestStatisticsResponse{
		TotalRequests:      s.TotalRequests,
		PendingRequests:    s.PendingRequests,
		InProgressRequests: s.InProgressRequests,
		CompletedRequests:  s.CompletedRequests,
		CancelledRequests:  s.CancelledRequests,
		TodayRequests:      s.TodayRequests,
		ByType:             s.ByType,
		TotalUploadedFiles: s.TotalUploadedFiles,
		TotalFileSize:      s.TotalFileSize,
	}
}
