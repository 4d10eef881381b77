package httpapi

import (
	"errors"
	"io"
	"net/http"

	"portfolio-cms/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// maxBodyBytes leaves room for a base64 encoded file at the blob size limit.
const maxBodyBytes = 16 << 20

// respond writes the success envelope {success: true, ...payload}.
func respond(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

// fail writes the error envelope and records err on the gin context so the
// request logger picks it up.
func fail(c *gin.Context, err error) {
	e := apperr.As(err)
	_ = c.Error(e)
	c.AbortWithStatusJSON(e.Status(), e.Body())
}

func methodNotAllowed(c *gin.Context) {
	fail(c, apperr.MethodNotAllowed())
}

// decodeBody reads a JSON object into dst. An empty body decodes as {}.
func decodeBody(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("Request body too large")
		}
		return apperr.BadRequest("Invalid request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := binding.JSON.BindBody(body, dst); err != nil {
		return apperr.BadRequest("Invalid JSON body")
	}
	return nil
}
