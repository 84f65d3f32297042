package sandbox

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hims/admin/pkg/pagination"
)

// signingSecret signs sandbox tokens. It is fixed on purpose: the sandbox
// is a local development fixture, not an auth system.
var signingSecret = []byte("hims-sandbox-secret")

// Server is the in-memory hospital backend.
type Server struct {
	echo *echo.Echo
	log  zerolog.Logger

	appointments          *collection
	patients              *collection
	internationalPatients *collection
	doctors               *collection
	departments           *collection
	healthCheckups        *collection
	news                  *collection
	blogs                 *collection
	labReports            *collection
	prescriptions         *collection
}

// NewServer builds a seeded sandbox.
func NewServer(cfg SeedConfig, log zerolog.Logger) *Server {
	s := &Server{
		echo:                  echo.New(),
		log:                   log,
		appointments:          newCollection(),
		patients:              newCollection(),
		internationalPatients: newCollection(),
		doctors:               newCollection(),
		departments:           newCollection(),
		healthCheckups:        newCollection(),
		news:                  newCollection(),
		blogs:                 newCollection(),
		labReports:            newCollection(),
		prescriptions:         newCollection(),
	}
	s.seed(cfg)
	s.routes()
	return s
}

// Handler exposes the server for httptest and for Start.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on the given address until the process exits.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("sandbox backend listening")
	return s.echo.Start(addr)
}

// envelopeStyle selects how a list endpoint wraps its results, mirroring
// the real backend's inconsistency between resources.
type envelopeStyle int

const (
	envelopeNested envelopeStyle = iota // {"data":{"data":[...],"pagination":{...}}}
	envelopeFlat                        // {"data":[...]}
	envelopeKeyed                       // {"data":{"<key>":[...],"pagination":{...}}}
)

// resourceDef wires one CRUD resource into the router.
type resourceDef struct {
	coll         *collection
	style        envelopeStyle
	entityKey    string
	searchFields []string
	facetFields  []string
	required     []string
}

func (s *Server) routes() {
	s.echo.HideBanner = true
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestID())

	s.echo.POST("/auth/login", s.handleLogin)

	api := s.echo.Group("/api", s.requireAuth)

	defs := map[string]resourceDef{
		"appointments": {
			coll:         s.appointments,
			style:        envelopeNested,
			searchFields: []string{"patient_full_name", "contact_number"},
			facetFields:  []string{"status", "speciality"},
			required:     []string{"patient_full_name", "contact_number", "appointment_date"},
		},
		"patients": {
			coll:         s.patients,
			style:        envelopeNested,
			searchFields: []string{"patient_full_name", "contact_number", "address"},
			facetFields:  []string{"status"},
			required:     []string{"patient_full_name", "contact_number"},
		},
		"international-patients": {
			coll:         s.internationalPatients,
			style:        envelopeKeyed,
			entityKey:    "international_patients",
			searchFields: []string{"patient_full_name", "contact_number", "passport_number"},
			facetFields:  []string{"status", "speciality", "country"},
			required: []string{
				"patient_full_name", "age", "contact_number", "gender",
				"country", "speciality", "passport_number", "appointment_date",
			},
		},
		"doctors": {
			coll:         s.doctors,
			style:        envelopeNested,
			searchFields: []string{"doctor_name", "qualification"},
			facetFields:  []string{"status", "speciality"},
			required:     []string{"doctor_name", "speciality"},
		},
		"departments": {
			coll:         s.departments,
			style:        envelopeFlat,
			searchFields: []string{"department_name", "description"},
			required:     []string{"department_name"},
		},
		"health-checkups": {
			coll:         s.healthCheckups,
			style:        envelopeNested,
			searchFields: []string{"checkup_title", "checkup_name"},
			required:     []string{"checkup_title", "checkup_name", "original_price", "discount_price"},
		},
		"news": {
			coll:         s.news,
			style:        envelopeFlat,
			searchFields: []string{"title", "content"},
			facetFields:  []string{"category"},
			required:     []string{"title"},
		},
		"blogs": {
			coll:         s.blogs,
			style:        envelopeFlat,
			searchFields: []string{"title", "content", "author"},
			facetFields:  []string{"category"},
			required:     []string{"title"},
		},
	}

	for name, def := range defs {
		def := def
		g := api.Group("/" + name)
		g.GET("", s.handleList(def))
		g.GET("/:id", s.handleGet(def))
		g.POST("", s.handleCreate(def))
		g.PUT("/:id", s.handleUpdate(def))
		g.DELETE("/:id", s.handleDelete(def))
	}

	// Patient file sub-resources.
	api.POST("/patients/:id/lab-reports", s.handleUpload(s.labReports, "report_name"))
	api.GET("/patients/:id/lab-reports", s.handleFileList(s.labReports))
	api.DELETE("/patients/:id/lab-reports/:fileID", s.handleFileDelete(s.labReports))
	api.POST("/patients/:id/prescriptions", s.handleUpload(s.prescriptions, "title"))
	api.GET("/patients/:id/prescriptions", s.handleFileList(s.prescriptions))
	api.DELETE("/patients/:id/prescriptions/:fileID", s.handleFileDelete(s.prescriptions))
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device"`
}

// handleLogin mints a token pair for any non-empty credentials. The
// sandbox authenticates everyone; what matters is that the client carries
// the tokens correctly afterwards. The body is decoded directly rather
// than bound: unauthenticated clients may omit the JSON content type.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and password are required"})
	}

	expiry := time.Now().Add(24 * time.Hour)
	access, err := s.mintToken(req.Email, expiry)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token generation failed"})
	}
	refresh, err := s.mintToken(req.Email, time.Now().Add(7*24*time.Hour))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token generation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{
		"access_token":                 access,
		"active_session_refresh_token": refresh,
		"device":                       req.Device,
		"token_expiry":                 expiry.Unix(),
	}})
}

func (s *Server) mintToken(subject string, expiry time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "admin",
		"exp":  expiry.Unix(),
		"iat":  time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingSecret)
}

// requireAuth accepts "Bearer <access>" or "Bearer <access>||<refresh>"
// and verifies the access token's signature and expiry.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		if i := strings.Index(raw, "||"); i >= 0 {
			raw = raw[:i]
		}
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return signingSecret, nil
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "session expired"})
		}
		return next(c)
	}
}

// ---------------------------------------------------------------------------
// CRUD handlers
// ---------------------------------------------------------------------------

func (s *Server) handleList(def resourceDef) echo.HandlerFunc {
	return func(c echo.Context) error {
		pg := pagination.FromContext(c)
		search := c.QueryParam("search")
		facets := make(map[string]string, len(def.facetFields))
		for _, f := range def.facetFields {
			facets[f] = c.QueryParam(f)
		}

		rows := def.coll.filter(func(r record) bool {
			return matchQuery(r, def.searchFields, search, facets)
		})
		total := len(rows)
		start, end := pg.Bounds(total)
		page := rows[start:end]
		meta := pagination.NewMeta(total, pg)

		switch def.style {
		case envelopeFlat:
			return c.JSON(http.StatusOK, echo.Map{"data": page})
		case envelopeKeyed:
			return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{
				def.entityKey: page,
				"pagination":  meta,
			}})
		default:
			return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{
				"data":       page,
				"pagination": meta,
			}})
		}
	}
}

func (s *Server) handleGet(def resourceDef) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, ok := def.coll.get(c.Param("id"))
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "record not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": r})
	}
}

func (s *Server) handleCreate(def resourceDef) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body record
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		for _, field := range def.required {
			if strings.TrimSpace(body.str(field)) == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": field + " is required"})
			}
		}
		created := def.coll.insert(body)
		return c.JSON(http.StatusCreated, echo.Map{"data": created})
	}
}

func (s *Server) handleUpdate(def resourceDef) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body record
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		updated, ok := def.coll.merge(c.Param("id"), body)
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "record not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": updated})
	}
}

func (s *Server) handleDelete(def resourceDef) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !def.coll.remove(c.Param("id")) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "record not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"deleted": true}})
	}
}

// ---------------------------------------------------------------------------
// File sub-resources
// ---------------------------------------------------------------------------

// handleUpload stores file metadata plus content size for a patient. The
// nameField ("report_name" or "title") is required alongside the file part.
func (s *Server) handleUpload(coll *collection, nameField string) echo.HandlerFunc {
	return func(c echo.Context) error {
		patientID := c.Param("id")
		if _, ok := s.patients.get(patientID); !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "patient not found"})
		}
		name := strings.TrimSpace(c.FormValue(nameField))
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": nameField + " is required"})
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unreadable file"})
		}
		defer f.Close()
		size, err := io.Copy(io.Discard, f)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unreadable file"})
		}

		created := coll.insert(record{
			"patient_id":  patientID,
			nameField:     name,
			"file_name":   fh.Filename,
			"size_bytes":  size,
			"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		})
		return c.JSON(http.StatusCreated, echo.Map{"data": created})
	}
}

func (s *Server) handleFileList(coll *collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		patientID := c.Param("id")
		rows := coll.filter(func(r record) bool {
			return r.str("patient_id") == patientID
		})
		return c.JSON(http.StatusOK, echo.Map{"data": rows})
	}
}

func (s *Server) handleFileDelete(coll *collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !coll.remove(c.Param("fileID")) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "file not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"deleted": true}})
	}
}
