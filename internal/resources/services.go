package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hims/admin/internal/envelope"
	"github.com/hims/admin/internal/session"
	"github.com/hims/admin/internal/transport"
)

// AppointmentsService manages appointment records.
type AppointmentsService struct {
	service[Appointment]
}

// PatientsService manages patient records plus their nested lab-report and
// prescription sub-resources.
type PatientsService struct {
	service[Patient]
}

// InternationalPatientsService manages international patient records.
type InternationalPatientsService struct {
	service[InternationalPatient]
}

// DoctorsService manages doctor profiles.
type DoctorsService struct {
	service[Doctor]
}

// DepartmentsService manages hospital departments.
type DepartmentsService struct {
	service[Department]
}

// HealthCheckupsService manages health-checkup packages.
type HealthCheckupsService struct {
	service[HealthCheckup]
}

// NewsService manages news entries.
type NewsService struct {
	service[NewsItem]
}

// BlogsService manages blog entries.
type BlogsService struct {
	service[BlogPost]
}

// ---------------------------------------------------------------------------
// Patient sub-resources
// ---------------------------------------------------------------------------

func (s *PatientsService) labReportsPath(patientID string) string {
	return s.path + "/" + url.PathEscape(patientID) + "/lab-reports"
}

func (s *PatientsService) prescriptionsPath(patientID string) string {
	return s.path + "/" + url.PathEscape(patientID) + "/prescriptions"
}

// UploadLabReport attaches a lab-report file to a patient.
func (s *PatientsService) UploadLabReport(ctx context.Context, patientID, reportName, fileName string, content []byte) transport.Result {
	return s.c.upload(ctx, s.labReportsPath(patientID), &transport.MultipartPayload{
		FieldName: "file",
		FileName:  fileName,
		Content:   content,
		Fields:    map[string]string{"report_name": reportName},
	})
}

// ListLabReports returns a patient's lab reports.
func (s *PatientsService) ListLabReports(ctx context.Context, patientID string) ([]LabReport, transport.Result) {
	res := s.c.do(ctx, http.MethodGet, s.labReportsPath(patientID), nil, nil)
	if !res.OK() {
		return nil, res
	}
	page := envelope.DecodeList(res.Payload(), "lab_reports")
	return envelope.Unmarshal[LabReport](page), res
}

// DeleteLabReport removes one lab report.
func (s *PatientsService) DeleteLabReport(ctx context.Context, patientID, reportID string) transport.Result {
	return s.c.do(ctx, http.MethodDelete, s.labReportsPath(patientID)+"/"+url.PathEscape(reportID), nil, nil)
}

// UploadPrescription attaches a prescription file to a patient.
func (s *PatientsService) UploadPrescription(ctx context.Context, patientID, title, fileName string, content []byte) transport.Result {
	return s.c.upload(ctx, s.prescriptionsPath(patientID), &transport.MultipartPayload{
		FieldName: "file",
		FileName:  fileName,
		Content:   content,
		Fields:    map[string]string{"title": title},
	})
}

// ListPrescriptions returns a patient's prescriptions.
func (s *PatientsService) ListPrescriptions(ctx context.Context, patientID string) ([]Prescription, transport.Result) {
	res := s.c.do(ctx, http.MethodGet, s.prescriptionsPath(patientID), nil, nil)
	if !res.OK() {
		return nil, res
	}
	page := envelope.DecodeList(res.Payload(), "prescriptions")
	return envelope.Unmarshal[Prescription](page), res
}

// DeletePrescription removes one prescription.
func (s *PatientsService) DeletePrescription(ctx context.Context, patientID, prescriptionID string) transport.Result {
	return s.c.do(ctx, http.MethodDelete, s.prescriptionsPath(patientID)+"/"+url.PathEscape(prescriptionID), nil, nil)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// AuthService handles the login call contract. Token refresh is not wired:
// a 401 tells the user to log in again.
type AuthService struct {
	c *Client
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device,omitempty"`
}

// Login exchanges credentials for a session credential.
func (s *AuthService) Login(ctx context.Context, email, password, device string) (*session.Credential, transport.Result) {
	res := s.c.do(ctx, http.MethodPost, "/auth/login", loginPayload{Email: email, Password: password, Device: device}, nil)
	if !res.OK() {
		return nil, res
	}
	var wrapped struct {
		Data *session.Credential `json:"data"`
	}
	if err := res.Decode(&wrapped); err != nil || wrapped.Data == nil || wrapped.Data.AccessToken == "" {
		return nil, transport.Fail(&transport.APIError{
			Kind:    transport.KindShapeMismatch,
			Message: "login response did not contain a credential",
		})
	}
	return wrapped.Data, res
}
