// Package receipt renders a printable PDF for a confirmed or completed
// booking, with the signed check-in QR embedded.
package receipt

import (
	"bytes"
	"fmt"
	"net/http"

	"subiclife/checkin"
	"subiclife/models"
	"subiclife/store"
	"subiclife/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

type Handler struct {
	st *store.Store
}

func NewHandler(st *store.Store) *Handler {
	return &Handler{st: st}
}

func (h *Handler) BookingReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, ok := h.st.BookingByID(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	if b.Status != models.StatusConfirmed && b.Status != models.StatusCompleted {
		utils.RespondWithError(w, http.StatusConflict, "receipt is only available for confirmed bookings")
		return
	}
	user, _ := h.st.UserByID(b.UserID)
	partner, _ := h.st.PartnerByID(b.PartnerID)

	qrPayload := checkin.GeneratePayload(user.ID, b.ID, utils.GenerateRandomDigitString(6))
	qrPNG, err := qrcode.Encode(qrPayload, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "SubicLife Booking Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Booking ID: %s", b.ID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Member: %s (%s)", user.Name, user.MemberID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Partner: %s", partner.Name))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Type: %s", b.BookingType))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Status: %s / payment %s", b.Status, b.PaymentStatus))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Total: PHP %.2f", b.TotalAmount))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Member discount: PHP %.2f", b.DiscountAmount))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Amount due: PHP %.2f", b.FinalAmount))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=booking-"+b.ID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
