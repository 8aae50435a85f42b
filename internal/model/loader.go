package model

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ratesynth/internal/covariance"
)

// Reserved column names in a model table.
const (
	ColumnBehavior = "behavior"
	ColumnMean     = "mean"
	ColumnMax      = "max"
)

// Extensions lists the supported model file extensions in lookup order.
var Extensions = []string{".csv", ".yaml", ".yml"}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	policy covariance.Policy
}

// WithPolicy sets the covariance correction policy. Default: PolicyReject.
func WithPolicy(p covariance.Policy) LoadOption {
	return func(o *loadOptions) {
		o.policy = p
	}
}

// Locate returns the path of {name}_{version} in dir with a supported extension.
func Locate(dir, name, version string) (string, error) {
	base := name + "_" + version
	for _, ext := range Extensions {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &ConfigError{
		Code:    ErrCodeUnreadable,
		Path:    filepath.Join(dir, base),
		Message: fmt.Sprintf("no model file with extension %v", Extensions),
	}
}

// LoadNamed locates {name}_{version} in dir and loads it.
func LoadNamed(dir, name, version string, opts ...LoadOption) (*Spec, error) {
	path, err := Locate(dir, name, version)
	if err != nil {
		return nil, err
	}
	return Load(path, opts...)
}

// Load reads, parses and validates a model file. The model name and version
// come from the file name, split at its last underscore.
func Load(path string, opts ...LoadOption) (*Spec, error) {
	o := loadOptions{policy: covariance.PolicyReject}
	for _, opt := range opts {
		opt(&o)
	}

	name, version, err := ParseFileName(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Code: ErrCodeUnreadable, Path: path, Message: "cannot read model file", Err: err}
	}

	var def Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		def, err = ParseCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		def, err = ParseYAML(data)
	default:
		err = configErr(ErrCodeUnsupportedFormat, "", "unsupported model extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, withPath(err, path)
	}

	def.Name = name
	def.Version = version
	def.Path = path

	spec, err := Build(def, o.policy)
	if err != nil {
		return nil, withPath(err, path)
	}

	slog.Debug("model loaded",
		"model", spec.ID(),
		"path", path,
		"behaviors", spec.Len(),
		"corrected", spec.Corrected(),
	)
	return spec, nil
}

// ParseFileName splits "{name}_{version}.ext" into name and version.
func ParseFileName(path string) (name, version string, err error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndex(base, "_")
	if idx <= 0 || idx == len(base)-1 {
		return "", "", &ConfigError{
			Code:    ErrCodeBadName,
			Path:    path,
			Message: "model file name must be {name}_{version}",
		}
	}
	return base[:idx], base[idx+1:], nil
}

func withPath(err error, path string) error {
	var ce *ConfigError
	if errors.As(err, &ce) && ce.Path == "" {
		ce.Path = path
	}
	return err
}

// ParseCSV reads a model table. The header must contain behavior and mean,
// may contain max, and must name every behavior as a covariance column.
func ParseCSV(r io.Reader) (Definition, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return Definition{}, &ConfigError{Code: ErrCodeMalformed, Message: "cannot parse CSV", Err: err}
	}
	if len(records) == 0 {
		return Definition{}, configErr(ErrCodeMalformed, "", "empty model file")
	}

	// Spreadsheet exports often lead with a byte order mark.
	records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")

	header := make([]string, len(records[0]))
	cols := make(map[string]int, len(header))
	for i, h := range records[0] {
		h = NormalizeName(h)
		if _, dup := cols[h]; dup {
			return Definition{}, configErr(ErrCodeMalformed, h, "column declared more than once")
		}
		header[i] = h
		cols[h] = i
	}

	behaviorCol, ok := cols[ColumnBehavior]
	if !ok {
		return Definition{}, configErr(ErrCodeMissingColumn, ColumnBehavior, "required column is missing")
	}
	meanCol, ok := cols[ColumnMean]
	if !ok {
		return Definition{}, configErr(ErrCodeMissingColumn, ColumnMean, "required column is missing")
	}
	maxCol, hasMax := cols[ColumnMax]

	rows := records[1:]
	if len(rows) == 0 {
		return Definition{}, configErr(ErrCodeNoBehaviors, ColumnBehavior, "model declares no behaviors")
	}

	def := Definition{
		Behaviors:  make([]string, len(rows)),
		Means:      make([]float64, len(rows)),
		Covariance: make([][]float64, len(rows)),
	}
	if hasMax {
		def.Maxima = make([]float64, len(rows))
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		name := NormalizeName(row[behaviorCol])
		if name == "" {
			return Definition{}, configErr(ErrCodeInvalidValue, ColumnBehavior, "row %d has an empty behavior name", i+1)
		}
		if seen[name] {
			return Definition{}, configErr(ErrCodeDuplicate, ColumnBehavior, "behavior %q declared more than once", name)
		}
		if isReserved(name) {
			return Definition{}, configErr(ErrCodeInvalidValue, ColumnBehavior, "behavior name %q is reserved", name)
		}
		seen[name] = true
		def.Behaviors[i] = name
	}

	// The covariance block is every non-reserved column; it must name exactly
	// the declared behaviors.
	for _, h := range header {
		if !isReserved(h) && !seen[h] {
			return Definition{}, configErr(ErrCodeUnknownColumn, h, "column is not a declared behavior")
		}
	}
	covCols := make([]int, len(def.Behaviors))
	for j, b := range def.Behaviors {
		col, ok := cols[b]
		if !ok {
			return Definition{}, configErr(ErrCodeMissingCovariance, b, "behavior has no covariance column")
		}
		covCols[j] = col
	}

	for i, row := range rows {
		b := def.Behaviors[i]
		if def.Means[i], err = parseCell(row[meanCol], b, ColumnMean); err != nil {
			return Definition{}, err
		}
		if hasMax {
			if def.Maxima[i], err = parseMax(row[maxCol], b); err != nil {
				return Definition{}, err
			}
		}
		def.Covariance[i] = make([]float64, len(covCols))
		for j, col := range covCols {
			if def.Covariance[i][j], err = parseCell(row[col], b, def.Behaviors[j]); err != nil {
				return Definition{}, err
			}
		}
	}

	return def, nil
}

func isReserved(name string) bool {
	return name == ColumnBehavior || name == ColumnMean || name == ColumnMax
}

func parseCell(cell, row, col string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || !isFinite(v) {
		return 0, &ConfigError{
			Code:    ErrCodeInvalidValue,
			Field:   col,
			Message: fmt.Sprintf("row %q: %q is not a finite number", row, cell),
		}
	}
	return v, nil
}

// unbounded is the max of a behavior without a declared ceiling.
var unbounded = math.Inf(1)

func parseMax(cell, row string) (float64, error) {
	if strings.TrimSpace(cell) == "" {
		return unbounded, nil
	}
	return parseCell(cell, row, ColumnMax)
}

// yamlModel is the YAML form of a model table.
type yamlModel struct {
	Behaviors []yamlBehavior `yaml:"behaviors"`
}

type yamlBehavior struct {
	Name       string             `yaml:"name"`
	Mean       *float64           `yaml:"mean"`
	Max        *float64           `yaml:"max,omitempty"`
	Covariance map[string]float64 `yaml:"covariance"`
}

// ParseYAML reads a model table written as YAML:
//
//	behaviors:
//	  - name: post
//	    mean: 10
//	    max: 40
//	    covariance: {post: 4, like: 1}
//	  - name: like
//	    mean: 25
//	    covariance: {post: 1, like: 9}
//
// A max column exists when at least one behavior declares max.
func ParseYAML(data []byte) (Definition, error) {
	var doc yamlModel
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, configErr(ErrCodeMalformed, "", "empty model file")
		}
		return Definition{}, &ConfigError{Code: ErrCodeMalformed, Message: "cannot parse YAML", Err: err}
	}
	if len(doc.Behaviors) == 0 {
		return Definition{}, configErr(ErrCodeNoBehaviors, "behaviors", "model declares no behaviors")
	}

	n := len(doc.Behaviors)
	def := Definition{
		Behaviors:  make([]string, n),
		Means:      make([]float64, n),
		Covariance: make([][]float64, n),
	}

	seen := make(map[string]bool, n)
	hasMax := false
	for i, b := range doc.Behaviors {
		name := NormalizeName(b.Name)
		if name == "" {
			return Definition{}, configErr(ErrCodeInvalidValue, "name", "behavior %d has an empty name", i+1)
		}
		if seen[name] {
			return Definition{}, configErr(ErrCodeDuplicate, "name", "behavior %q declared more than once", name)
		}
		if b.Mean == nil {
			return Definition{}, configErr(ErrCodeMissingColumn, ColumnMean, "behavior %q has no mean", name)
		}
		seen[name] = true
		def.Behaviors[i] = name
		def.Means[i] = *b.Mean
		if b.Max != nil {
			hasMax = true
		}
	}

	if hasMax {
		def.Maxima = make([]float64, n)
		for i, b := range doc.Behaviors {
			def.Maxima[i] = unbounded
			if b.Max != nil {
				def.Maxima[i] = *b.Max
			}
		}
	}

	for i, b := range doc.Behaviors {
		row := make(map[string]float64, len(b.Covariance))
		for k, v := range b.Covariance {
			k = NormalizeName(k)
			if !seen[k] {
				return Definition{}, configErr(ErrCodeUnknownColumn, k,
					"behavior %q: covariance names an undeclared behavior", def.Behaviors[i])
			}
			row[k] = v
		}
		def.Covariance[i] = make([]float64, n)
		for j, col := range def.Behaviors {
			v, ok := row[col]
			if !ok {
				return Definition{}, configErr(ErrCodeMissingCovariance, col,
					"behavior %q: covariance entry missing", def.Behaviors[i])
			}
			def.Covariance[i][j] = v
		}
	}

	return def, nil
}
