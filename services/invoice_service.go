package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/otienojr/park_space/configs"
	"github.com/otienojr/park_space/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// GenerateInvoicePDF renders the booking invoice template to PDF with a
// headless browser and returns the raw bytes.
func GenerateInvoicePDF(booking models.Booking) ([]byte, error) {
	htmlData, err := renderInvoiceHTML(booking)
	if err != nil {
		return nil, err
	}
	return generatePDFFromHTML(htmlData)
}

// ArchiveInvoice uploads a rendered invoice to Cloudinary and returns the
// public URL. Failures are logged, not fatal: the renter can always re-download.
func ArchiveInvoice(booking models.Booking, pdfBytes []byte) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("invoices/%s", booking.ReferenceCode),
		Folder:       "park_space_invoices",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(pdfBytes), uploadParams)
	if err != nil {
		log.Printf("🔥 Failed to upload invoice %s to Cloudinary: %v", booking.ReferenceCode, err)
		return "", err
	}

	return uploadResult.SecureURL, nil
}

func renderInvoiceHTML(booking models.Booking) (string, error) {
	tmpl, err := template.ParseFiles("templates/invoice.html")
	if err != nil {
		return "", err
	}

	data := struct {
		ReferenceCode string
		RenterName    string
		SpaceTitle    string
		SpaceAddress  string
		StartTime     string
		EndTime       string
		TotalPrice    string
		PlatformFee   string
		OwnerPayout   string
		Currency      string
		IssuedOn      string
	}{
		ReferenceCode: booking.ReferenceCode,
		RenterName:    booking.Renter.FullName,
		SpaceTitle:    booking.Space.Title,
		SpaceAddress:  booking.Space.Address,
		StartTime:     booking.StartTime.Format("Jan 2, 2006 15:04"),
		EndTime:       booking.EndTime.Format("Jan 2, 2006 15:04"),
		TotalPrice:    fmt.Sprintf("%.2f", booking.TotalPrice),
		PlatformFee:   fmt.Sprintf("%.2f", booking.PlatformFee),
		OwnerPayout:   fmt.Sprintf("%.2f", booking.OwnerPayout),
		Currency:      booking.Currency,
		IssuedOn:      time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
