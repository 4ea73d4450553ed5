package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	Limit       int `json:"limit"`
}

// Page is the data payload of every list endpoint.
type Page struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// NewPage builds a Page, deriving the page count from total and limit.
func NewPage(data interface{}, total, page, limit int) Page {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Data: data, Pagination: Pagination{TotalItems: total, TotalPages: pages, CurrentPage: page, Limit: limit}}
}

// JSON sends a success envelope with the given status.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Body{StatusCode: status, Message: message, Success: true, Data: data})
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// Error sends a failure envelope.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Body{StatusCode: status, Message: message, Success: false})
}

// AbortError sends a failure envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Body{StatusCode: status, Message: message, Success: false})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}

// Fail renders err by its kind. Internal failures are logged and rendered generically.
func Fail(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal && logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	Error(c, apperr.HTTPStatus(kind), apperr.Message(err))
}
