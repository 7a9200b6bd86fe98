package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// doRequest performs an HTTP request against the router and returns the recorder.
func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

// testProfile builds a registered profile with a one-file CSV distribution.
func testProfile(id string, keywords ...string) *models.Profile {
	return &models.Profile{
		ID:       id,
		Name:     id,
		Keywords: keywords,
		Headline: "headline of " + id,
		Distribution: []*models.ResourceNode{{
			Name:   id + ".csv",
			Kind:   models.KindFile,
			Format: models.FormatCSV,
			Columns: []models.Column{
				{Name: "city", Samples: []string{"berlin"}},
			},
		}},
	}
}
