package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/barramodel/internal/factors"
	"github.com/aristath/barramodel/internal/factors/transpose"
)

const dateLayout = "2006-01-02"

// FactorColumns is the fixed 40-column factor axis (10 style factors then
// 30 industry dummies), in the order every artifact's columns follow.
func FactorColumns() []string {
	cols := append([]string{}, factors.StyleFactorNames...)
	cols = append(cols, factors.IndustryNames()...)
	return cols
}

// Sink is the Artifact Sink (C8): it owns the on-disk layout under a
// configured root directory and guarantees atomic, single-writer-per-key
// publishes.
type Sink struct {
	root string
}

// NewSink builds a Sink rooted at dir.
func NewSink(dir string) *Sink {
	return &Sink{root: dir}
}

func (s *Sink) exposurePath(security string) string {
	return filepath.Join(s.root, "exposures", security+".csv.gz")
}

func (s *Sink) crossSectionPath(date time.Time) string {
	return filepath.Join(s.root, "cross_sections", date.Format(dateLayout)+".csv.gz")
}

func (s *Sink) factorReturnPath() string {
	return filepath.Join(s.root, "factor_returns.csv.gz")
}

func (s *Sink) specificRiskPath() string {
	return filepath.Join(s.root, "specific_risk.csv.gz")
}

func (s *Sink) riskParametersPath() string {
	return filepath.Join(s.root, "risk_parameters.json")
}

func (s *Sink) validationReportPath() string {
	return filepath.Join(s.root, "validation_report.json")
}

func (s *Sink) cursorPath() string {
	return filepath.Join(s.root, "cursor.json")
}

// WriteExposures publishes one security's full exposure series.
func (s *Sink) WriteExposures(security string, rows []factors.Exposure) error {
	header := append([]string{"date"}, FactorColumns()...)
	out := make([][]string, 0, len(rows)+1)
	out = append(out, header)
	for _, e := range rows {
		out = append(out, exposureRow(e))
	}
	return writeCSVAtomic(s.exposurePath(security), out)
}

// WriteCrossSection publishes one trading day's cross section. An empty
// cross section is skipped entirely, per C4's contract.
func (s *Sink) WriteCrossSection(cs transpose.CrossSection) error {
	if len(cs.Rows) == 0 {
		return nil
	}
	header := append([]string{"security"}, FactorColumns()...)
	out := make([][]string, 0, len(cs.Rows)+1)
	out = append(out, header)
	for _, e := range cs.Rows {
		row := append([]string{e.Security}, exposureRow(e)[1:]...)
		out = append(out, row)
	}
	return writeCSVAtomic(s.crossSectionPath(cs.Date), out)
}

// ListCrossSectionDates returns every published cross-section date,
// ascending.
func (s *Sink) ListCrossSectionDates() ([]time.Time, error) {
	dir := filepath.Join(s.root, "cross_sections")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list cross section directory: %w", err)
	}

	var dates []time.Time
	for _, entry := range entries {
		base := strings.TrimSuffix(entry.Name(), ".csv.gz")
		d, err := time.Parse(dateLayout, base)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// FactorReturnRow is one day's solved factor-return vector.
type FactorReturnRow struct {
	Date    time.Time
	Factors []float64 // length 40, in FactorColumns order
}

// ReadFactorReturnSeries loads the published factor-return series, sorted
// ascending by date. A not-yet-published series returns (nil, nil).
func (s *Sink) ReadFactorReturnSeries() ([]FactorReturnRow, error) {
	rows, err := readCSV(s.factorReturnPath())
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	out := make([]FactorReturnRow, 0, len(rows)-1)
	for _, r := range rows[1:] {
		d, err := time.Parse(dateLayout, r[0])
		if err != nil {
			continue
		}
		vals := make([]float64, len(r)-1)
		for i, cell := range r[1:] {
			v := parseFloat(cell)
			if v != nil {
				vals[i] = *v
			}
		}
		out = append(out, FactorReturnRow{Date: d, Factors: vals})
	}
	return out, nil
}

// WriteFactorReturnSeries publishes the full factor-return series (the
// caller is responsible for appending new rows to the previously-read
// series before calling this during an incremental update).
func (s *Sink) WriteFactorReturnSeries(rows []FactorReturnRow) error {
	header := append([]string{"date"}, FactorColumns()...)
	out := make([][]string, 0, len(rows)+1)
	out = append(out, header)
	for _, r := range rows {
		row := make([]string, 0, len(r.Factors)+1)
		row = append(row, r.Date.Format(dateLayout))
		for _, v := range r.Factors {
			row = append(row, formatFloatValue(v))
		}
		out = append(out, row)
	}
	return writeCSVAtomic(s.factorReturnPath(), out)
}

// WriteSpecificRisk publishes the per-security specific-risk file.
func (s *Sink) WriteSpecificRisk(bySecurity map[string]float64) error {
	securities := make([]string, 0, len(bySecurity))
	for sec := range bySecurity {
		securities = append(securities, sec)
	}
	sort.Strings(securities)

	out := [][]string{{"security", "specific_risk"}}
	for _, sec := range securities {
		out = append(out, []string{sec, formatFloatValue(bySecurity[sec])})
	}
	return writeCSVAtomic(s.specificRiskPath(), out)
}

// RiskParameters is the risk-parameters document (§6): a single structured
// document with the factor-covariance matrix, factor-volatility vector,
// and estimation metadata.
type RiskParameters struct {
	EstimationDate   string               `json:"estimation_date"`
	EstimationWindow int                  `json:"estimation_window"`
	HalfLife         float64              `json:"half_life"`
	NumFactors       int                  `json:"num_factors"`
	NumStocks        int                  `json:"num_stocks"`
	FactorCovariance map[string]map[string]float64 `json:"factor_covariance"`
	FactorVolatility map[string]float64   `json:"factor_volatility"`
	SpecificRisk     map[string]float64   `json:"specific_risk"`
}

// WriteRiskParameters publishes the risk-parameters document as JSON.
func (s *Sink) WriteRiskParameters(doc RiskParameters) error {
	return writeJSONAtomic(s.riskParametersPath(), ".tmp-risk-params-*", doc)
}

// WriteValidationReport publishes the outcome of one validation pass as
// JSON, so an operator (or the next incremental run) can inspect what the
// last run found without re-deriving it from logs.
func (s *Sink) WriteValidationReport(report ValidationReport) error {
	return writeJSONAtomic(s.validationReportPath(), ".tmp-validation-report-*", report)
}

// WriteCursor persists the latest published trading day as the incremental
// cursor marker, so a restart can resume from it without re-scanning the
// whole artifact directory.
func (s *Sink) WriteCursor(date time.Time) error {
	return writeJSONAtomic(s.cursorPath(), ".tmp-cursor-*", cursorDocument{Date: date.Format(dateLayout)})
}

// ReadCursor loads the persisted cursor marker. ok is false when no cursor
// has been published yet (first run, or data predating the cursor feature).
func (s *Sink) ReadCursor() (date time.Time, ok bool, err error) {
	data, err := os.ReadFile(s.cursorPath())
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read cursor: %w", err)
	}
	var doc cursorDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, false, fmt.Errorf("unmarshal cursor: %w", err)
	}
	d, err := time.Parse(dateLayout, doc.Date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cursor date: %w", err)
	}
	return d, true, nil
}

type cursorDocument struct {
	Date string `json:"date"`
}

// writeJSONAtomic marshals v as indented JSON and publishes it to path via
// the same write-temp-then-rename sequence WriteRiskParameters uses.
func writeJSONAtomic(path, tmpPattern string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s directory: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", filepath.Base(path), err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", filepath.Base(path), err)
	}
	return os.Rename(tmpPath, path)
}

func exposureRow(e factors.Exposure) []string {
	row := make([]string, 0, len(FactorColumns())+1)
	row = append(row, e.Date.Format(dateLayout))
	for _, v := range e.StyleValues() {
		row = append(row, formatFloat(v))
	}
	oneHot := e.Industry.OneHot()
	for _, v := range oneHot {
		row = append(row, formatFloatValue(v))
	}
	return row
}
