package handlers

import (
	"net/http"
	"net/url"

	pkghttp "github.com/caremypark/api/pkg/http"
	qrcode "github.com/skip2/go-qrcode"
)

// QRHandler renders QR code posters that link a park location to the report
// intake page.
type QRHandler struct {
	reportBaseURL string
}

// NewQRHandler creates a new QRHandler
func NewQRHandler(reportBaseURL string) *QRHandler {
	return &QRHandler{reportBaseURL: reportBaseURL}
}

// LocationQR writes a PNG QR code encoding the report URL for a location
func (h *QRHandler) LocationQR(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		location = "Main Park"
	}

	target := h.reportBaseURL + "?location=" + url.QueryEscape(location)

	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
