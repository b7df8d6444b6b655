package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

const sheetName = "Demandes"

type column struct {
	header string
	width  float64
	value  func(sr *entity.ServiceRequest) interface{}
}

var columns = []column{
	{"Référence", 22, func(sr *entity.ServiceRequest) interface{} { return sr.ReferenceNumber }},
	{"Date", 18, func(sr *entity.ServiceRequest) interface{} { return sr.CreatedAt.Format("2006-01-02 15:04") }},
	{"Statut", 14, func(sr *entity.ServiceRequest) interface{} { return sr.Status }},
	{"Paiement", 12, func(sr *entity.ServiceRequest) interface{} { return sr.PaymentStatus }},
	{"Type client", 14, func(sr *entity.ServiceRequest) interface{} { return sr.Contact.ClientType }},
	{"Nom", 24, func(sr *entity.ServiceRequest) interface{} { return sr.Contact.FullName() }},
	{"Société", 24, func(sr *entity.ServiceRequest) interface{} { return sr.Contact.CompanyName }},
	{"Email", 28, func(sr *entity.ServiceRequest) interface{} { return sr.Contact.Email }},
	{"Téléphone", 16, func(sr *entity.ServiceRequest) interface{} { return sr.Contact.Phone }},
	{"Adresse", 32, func(sr *entity.ServiceRequest) interface{} { return sr.Address.Address }},
	{"Code postal", 12, func(sr *entity.ServiceRequest) interface{} { return sr.Address.PostalCode }},
	{"Ville", 18, func(sr *entity.ServiceRequest) interface{} { return sr.Address.City }},
	{"Demande", 26, func(sr *entity.ServiceRequest) interface{} { return entity.RequestTypeLabel(sr.Technical.RequestType) }},
	{"Puissance (kVA)", 14, func(sr *entity.ServiceRequest) interface{} { return sr.Technical.PowerKVA }},
	{"Phase", 12, func(sr *entity.ServiceRequest) interface{} { return sr.Technical.PhaseType }},
	{"Prix HT (€)", 12, func(sr *entity.ServiceRequest) interface{} { return float64(sr.Pricing.PriceHTCents) / 100 }},
	{"Prix TTC (€)", 12, func(sr *entity.ServiceRequest) interface{} { return float64(sr.Pricing.PriceTTCCents) / 100 }},
	{"Source", 10, func(sr *entity.ServiceRequest) interface{} { return sr.Source }},
	{"Notes", 40, func(sr *entity.ServiceRequest) interface{} { return sr.Notes }},
}

// XLSXWriter gera a planilha de demandas do back-office.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

func (XLSXWriter) WriteServiceRequests(w io.Writer, items []*entity.ServiceRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col.header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, col.width); err != nil {
			return err
		}
	}

	for r, sr := range items {
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, col.value(sr)); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
