package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"wordnest/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateTestReport(data TestReportData) (string, error)
	GenerateProgressReport(data ProgressReportData) (string, error)
}

// DocumentGenerator — реализация
type DocumentGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
	fontName string // внутреннее имя шрифта в PDF
}

type TestReportData struct {
	UserName  string
	Session   *models.TestSession
	Answers   []ReportAnswer
	Breakdown []*models.CategoryResult
	Filename  string // имя файла (без путей); если пусто — сгенерируем
}

type ReportAnswer struct {
	Prompt     string
	Expected   string
	UserAnswer string
	IsCorrect  bool
}

type ProgressReportData struct {
	UserName       string
	TotalWords     int
	WordsLearned   int
	NeedPractice   int
	TestsCompleted int
	AverageSuccess int
	CurrentStreak  int
	BestStreak     int
	GeneratedAt    time.Time
	Filename       string
}

func NewDocumentGenerator(rootDir, fontPath string) *DocumentGenerator {
	return &DocumentGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

func (g *DocumentGenerator) GenerateTestReport(data TestReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("test_report_%d.pdf", data.Session.ID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Отчёт по тесту №%d", data.Session.ID), false)
	pdf.SetAuthor("WordNest", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "РЕЗУЛЬТАТЫ ТЕСТА", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("№ WN-%06d  от  %s",
		data.Session.ID,
		data.Session.StartTime.Format("02.01.2006"),
	)
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	pdf.Ln(3)

	// ===== Сводка
	g.sectionTitle(pdf, "Сводка")
	g.kvLine(pdf, "Ученик", data.UserName)
	g.kvLine(pdf, "Всего слов", fmt.Sprintf("%d", data.Session.TotalWords))
	g.kvLine(pdf, "Правильно", fmt.Sprintf("%d", data.Session.CorrectAnswers))
	g.kvLine(pdf, "Неправильно", fmt.Sprintf("%d", data.Session.IncorrectAnswers))
	g.kvLine(pdf, "Успешность", fmt.Sprintf("%d%%", data.Session.SuccessRate()))
	g.kvLine(pdf, "Длительность", fmt.Sprintf("%d сек", data.Session.DurationSeconds))
	pdf.Ln(2)
	g.hr(pdf)

	// ===== По категориям
	if len(data.Breakdown) > 0 {
		g.sectionTitle(pdf, "По категориям")
		for _, b := range data.Breakdown {
			g.kvLine(pdf, b.CategoryName, fmt.Sprintf("%d из %d (%d%%)", b.Correct, b.Total, b.Percentage))
		}
		pdf.Ln(2)
		g.hr(pdf)
	}

	// ===== Ответы
	g.sectionTitle(pdf, "Ответы")
	pdf.SetFont(g.fontName, "", 11)
	for i, a := range data.Answers {
		mark := "✗"
		if a.IsCorrect {
			mark = "✓"
		}
		line := fmt.Sprintf("%d. %s  %s — ответ: %s", i+1, mark, a.Prompt, a.UserAnswer)
		if !a.IsCorrect {
			line += fmt.Sprintf(" (верно: %s)", a.Expected)
		}
		pdf.MultiCell(0, 6, line, "", "L", false)
	}

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Стр. %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *DocumentGenerator) GenerateProgressReport(data ProgressReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("progress_%s.pdf", data.GeneratedAt.Format("20060102"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	g.addUTF8Font(pdf)
	pdf.SetFont(g.fontName, "", 14)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.SetY(20)
	center := (210 - pdf.GetStringWidth("ПРОГРЕСС ИЗУЧЕНИЯ")) / 2
	if center < 10 {
		center = 10
	}
	pdf.SetX(center)
	pdf.Cell(40, 10, "ПРОГРЕСС ИЗУЧЕНИЯ")
	pdf.Ln(20)

	g.addLines(pdf, []string{
		fmt.Sprintf("Ученик: %s", data.UserName),
		fmt.Sprintf("Слов в словаре: %d", data.TotalWords),
		fmt.Sprintf("Выучено: %d", data.WordsLearned),
		fmt.Sprintf("Требуют повторения: %d", data.NeedPractice),
		fmt.Sprintf("Тестов пройдено: %d", data.TestsCompleted),
		fmt.Sprintf("Средняя успешность: %d%%", data.AverageSuccess),
		fmt.Sprintf("Текущая серия: %d дн. (рекорд %d)", data.CurrentStreak, data.BestStreak),
		fmt.Sprintf("Дата отчёта: %s", data.GeneratedAt.Format("02.01.2006")),
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

// ===== helpers =====

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *DocumentGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *DocumentGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *DocumentGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	// AddUTF8Font принимает путь до TTF
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

func (g *DocumentGenerator) addLines(pdf *gofpdf.Fpdf, lines []string) {
	pdf.SetFont(g.fontName, "", 12)
	left := 20.0
	for _, line := range lines {
		pdf.SetX(left)
		pdf.Cell(0, 10, line)
		pdf.Ln(15)
	}
}
