package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RequestData is the type-specific payload of a request. Each request type has exactly one shape.
type RequestData interface {
	RequestType() RequestType
}

// AppointmentData books an appointment with a specialty in a city.
type AppointmentData struct {
	Specialty     string `json:"specialty" validate:"required"`
	City          string `json:"city" validate:"required"`
	PreferredDate string `json:"preferredDate" validate:"required"`
	PreferredTime string `json:"preferredTime" validate:"required"`
	Notes         string `json:"notes,omitempty"`
}

func (AppointmentData) RequestType() RequestType { return RequestTypeAppointment }

// ConsultationData asks for a medical consultation.
type ConsultationData struct {
	ConsultationType string `json:"consultationType" validate:"required"`
	Description      string `json:"description" validate:"required"`
}

func (ConsultationData) RequestType() RequestType { return RequestTypeConsultation }

// MedicalReportData asks for a medical report.
type MedicalReportData struct {
	ReportType string `json:"reportType" validate:"required"`
	Purpose    string `json:"purpose" validate:"required"`
}

func (MedicalReportData) RequestType() RequestType { return RequestTypeMedicalReport }

// MedicalExcuseData asks for a sick-leave excuse.
type MedicalExcuseData struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Region    string `json:"region" validate:"required"`
	Workplace string `json:"workplace" validate:"required"`
}

func (MedicalExcuseData) RequestType() RequestType { return RequestTypeMedicalExcuse }

// ReviewCertificateData asks for proof of a hospital visit.
type ReviewCertificateData struct {
	ReviewDate string `json:"reviewDate" validate:"required"`
	Region     string `json:"region" validate:"required"`
	Workplace  string `json:"workplace" validate:"required"`
}

func (ReviewCertificateData) RequestType() RequestType { return RequestTypeReviewCertificate }

// PatientCompanionReportData asks for a report covering a patient's companion.
type PatientCompanionReportData struct {
	PatientName         string `json:"patientName" validate:"required"`
	PatientNationalID   string `json:"patientNationalId" validate:"required"`
	HospitalEntryDate   string `json:"hospitalEntryDate" validate:"required"`
	HospitalExitDate    string `json:"hospitalExitDate" validate:"required"`
	MedicalCondition    string `json:"medicalCondition" validate:"required"`
	Region              string `json:"region" validate:"required"`
	CompanionName       string `json:"companionName" validate:"required"`
	CompanionNationalID string `json:"companionNationalId" validate:"required"`
	Relationship        string `json:"relationship" validate:"required"`
}

func (PatientCompanionReportData) RequestType() RequestType {
	return RequestTypePatientCompanionReport
}

// DecodeRequestData decodes raw into the payload shape for t. Shape validation is left to the caller.
func DecodeRequestData(t RequestType, raw json.RawMessage) (RequestData, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = []byte("{}")
	}
	switch t {
	case RequestTypeAppointment:
		return decodeInto[AppointmentData](raw)
	case RequestTypeConsultation:
		return decodeInto[ConsultationData](raw)
	case RequestTypeMedicalReport:
		return decodeInto[MedicalReportData](raw)
	case RequestTypeMedicalExcuse:
		return decodeInto[MedicalExcuseData](raw)
	case RequestTypeReviewCertificate:
		return decodeInto[ReviewCertificateData](raw)
	case RequestTypePatientCompanionReport:
		return decodeInto[PatientCompanionReportData](raw)
	default:
		return nil, fmt.Errorf("unknown request type %q", t)
	}
}

func decodeInto[T RequestData](raw json.RawMessage) (RequestData, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
