package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"backend_fleetmaint/models"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportService формирует отчетные документы: PDF нарядов и
// выгрузки журнала наработки
type ReportService struct {
	db *gorm.DB
}

// NewReportService создает новый экземпляр ReportService
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// GenerateWorkOrderPDF формирует PDF наряда с перечнем задач.
// Наряд должен быть загружен вместе с Tasks и System.
// Возвращает содержимое файла и уникальное имя.
func (rs *ReportService) GenerateWorkOrderPDF(order *models.WorkOrder) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")
	pdf.AddPage()

	// Шапка документа
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Наряд на работы #%d", order.ID)))
	pdf.Ln(12)

	// Реквизиты наряда
	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Состояние", order.GetStateDisplayName()},
		{"Вид ТО", order.GetMaintenanceTypeDisplayName()},
		{"Дата создания", order.CreatedAt.Format("02.01.2006")},
	}
	if order.System != nil {
		rows = append(rows, [2]string{"Система", order.System.Name})
		if order.System.Asset != nil {
			rows = append(rows, [2]string{"Актив", order.System.Asset.Name})
		}
	}
	if order.Supervisor != nil {
		rows = append(rows, [2]string{"Руководитель", order.Supervisor.FullName()})
	}

	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(45, 7, tr(row[0]))
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 7, tr(row[1]))
		pdf.Ln(7)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr(order.Description), "", "L", false)
	pdf.Ln(4)

	// Таблица задач
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, tr("Задачи"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(12, 7, tr("№"))
	pdf.Cell(110, 7, tr("Описание"))
	pdf.Cell(35, 7, tr("Начало"))
	pdf.Cell(25, 7, tr("Статус"))
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for i, task := range order.Tasks {
		start := ""
		if task.StartDate != nil {
			start = task.StartDate.Format("02.01.2006")
		}
		status := "-"
		if task.Finished {
			status = "Выполнена"
		}

		pdf.Cell(12, 6, fmt.Sprintf("%d", i+1))
		pdf.Cell(110, 6, tr(truncateText(task.Description, 70)))
		pdf.Cell(35, 6, start)
		pdf.Cell(25, 6, tr(status))
		pdf.Ln(6)
	}

	if len(order.Tasks) == 0 {
		pdf.Cell(0, 6, tr("Задачи не добавлены"))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("не удалось сформировать PDF наряда: %w", err)
	}

	fileName := fmt.Sprintf("work_order_%d_%s.pdf", order.ID, uuid.New().String()[:8])
	return buf.Bytes(), fileName, nil
}

// AssetLedgerRow представляет строку выгрузки журнала наработки актива
type AssetLedgerRow struct {
	EquipmentCode string
	EquipmentName string
	ReportDate    time.Time
	Hours         int
	Reporter      string
}

// CollectAssetLedger собирает журнал наработки вращающегося оборудования актива
func (rs *ReportService) CollectAssetLedger(assetID uint) ([]AssetLedgerRow, error) {
	var reports []models.HourReport
	err := rs.db.Preload("Equipment").Preload("Reporter").
		Joins("JOIN equipment ON equipment.id = hour_reports.equipment_id").
		Joins("JOIN systems ON systems.id = equipment.system_id").
		Where("systems.asset_id = ? AND equipment.type = ?", assetID, models.EquipmentTypeRotating).
		Order("hour_reports.report_date DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("не удалось собрать журнал наработки: %w", err)
	}

	rows := make([]AssetLedgerRow, 0, len(reports))
	for _, r := range reports {
		row := AssetLedgerRow{ReportDate: r.ReportDate, Hours: r.Hours}
		if r.Equipment != nil {
			row.EquipmentCode = r.Equipment.Code
			row.EquipmentName = r.Equipment.Name
		}
		if r.Reporter != nil {
			row.Reporter = r.Reporter.FullName()
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// GenerateAssetLedgerExcel формирует XLSX выгрузку журнала наработки актива
func (rs *ReportService) GenerateAssetLedgerExcel(asset *models.Asset, rows []AssetLedgerRow) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Наработка"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"Код оборудования", "Оборудование", "Дата", "Часы", "Кто подал"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, row := range rows {
		values := []interface{}{
			row.EquipmentCode,
			row.EquipmentName,
			row.ReportDate.Format("02.01.2006"),
			row.Hours,
			row.Reporter,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	// Добавляем автофильтр
	endCell := fmt.Sprintf("%s%d", string(rune('A'+len(headers)-1)), len(rows)+1)
	f.AutoFilter(sheetName, "A1:"+endCell, []excelize.AutoFilterOptions{})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("не удалось сформировать Excel выгрузку: %w", err)
	}

	fileName := fmt.Sprintf("asset_%d_hours_%s.xlsx", asset.ID, uuid.New().String()[:8])
	return buf.Bytes(), fileName, nil
}

// GenerateAssetLedgerCSV формирует CSV выгрузку журнала наработки актива
func (rs *ReportService) GenerateAssetLedgerCSV(asset *models.Asset, rows []AssetLedgerRow) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	// Записываем заголовки
	if err := writer.Write([]string{"equipment_code", "equipment_name", "report_date", "hours", "reporter"}); err != nil {
		return nil, "", err
	}

	// Записываем данные
	for _, row := range rows {
		record := []string{
			row.EquipmentCode,
			row.EquipmentName,
			row.ReportDate.Format("2006-01-02"),
			fmt.Sprintf("%d", row.Hours),
			row.Reporter,
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	fileName := fmt.Sprintf("asset_%d_hours_%s.csv", asset.ID, uuid.New().String()[:8])
	return buf.Bytes(), fileName, nil
}

// truncateText обрезает строку до limit символов с многоточием
func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "..."
}
