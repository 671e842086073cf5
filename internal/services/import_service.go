// internal/services/import_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/repository"
	"github.com/javajoker/assetdesk/internal/spreadsheet"
)

// Row error and warning codes reported back to the uploader.
const (
	ImportCodeRequiredField   = "REQUIRED_FIELD"
	ImportCodeInvalidDate     = "INVALID_DATE"
	ImportCodeInvalidRow      = "INVALID_ROW"
	ImportCodeTaxonomyFailed  = "TAXONOMY_FAILED"
	ImportCodeCreateFailed    = "CREATE_FAILED"
	ImportCodeCountNotUpdated = "COUNT_NOT_UPDATED"
)

// excelEpochOffset is the serial of 1970-01-01 in the 1900 date system.
const excelEpochOffset = 25569

// Valid date serials run from 1900-01-01 to 9999-12-31.
const (
	minDateSerial = 1
	maxDateSerial = 2958465
)

// compactDate matches yyyy and yyyymmdd cells with a 19xx or 20xx year.
var compactDate = regexp.MustCompile(`^(19|20)\d{2}((0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01]))?$`)

type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ImportResult struct {
	TotalRows     int              `json:"total_rows"`
	ImportedCount int              `json:"imported_count"`
	FailedCount   int              `json:"failed_count"`
	Errors        []ImportRowError `json:"errors,omitempty"`
	Warnings      []ImportRowError `json:"warnings,omitempty"`
	CreatedIDs    []uuid.UUID      `json:"created_ids,omitempty"`
}

// ImportRow is the decoded shape of one product row. Columns that match no
// field are kept in Extra and stored on the product.
type ImportRow struct {
	Category       string                 `mapstructure:"category"`
	Type           string                 `mapstructure:"type"`
	Name           string                 `mapstructure:"name"`
	Brand          string                 `mapstructure:"brand"`
	Model          string                 `mapstructure:"model"`
	Specifications string                 `mapstructure:"specifications"`
	SerialNumber   string                 `mapstructure:"serialnumber"`
	Tag            string                 `mapstructure:"tag"`
	Condition      string                 `mapstructure:"condition"`
	Status         string                 `mapstructure:"status"`
	PurchaseDate   interface{}            `mapstructure:"purchasedate"`
	WarrantyExpiry interface{}            `mapstructure:"warrantyexpiry"`
	Branch         string                 `mapstructure:"branch"`
	Remarks        string                 `mapstructure:"remarks"`
	Extra          map[string]interface{} `mapstructure:",remain"`
}

// columnAliases maps alternative normalized headers onto ImportRow keys.
var columnAliases = map[string]string{
	"categoryname": "category",
	"typename":     "type",
	"assettype":    "type",
	"productname":  "name",
	"specs":        "specifications",
	"serial":       "serialnumber",
	"serialno":     "serialnumber",
	"assettag":     "tag",
	"purchased":    "purchasedate",
	"warranty":     "warrantyexpiry",
	"notes":        "remarks",
}

var aliasNames = sortedKeys(columnAliases)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type ImportService struct {
	taxonomy   *TaxonomyService
	products   repository.ProductRepository
	counts     repository.TaxonomyRepository
	defaultTag string
}

func NewImportService(taxonomy *TaxonomyService, products repository.ProductRepository, counts repository.TaxonomyRepository, defaultTag string) *ImportService {
	if defaultTag == "" {
		defaultTag = models.DefaultProductTag
	}
	return &ImportService{
		taxonomy:   taxonomy,
		products:   products,
		counts:     counts,
		defaultTag: defaultTag,
	}
}

// ProductImportTemplate lists the columns ImportProducts understands.
func ProductImportTemplate() spreadsheet.Template {
	return spreadsheet.Template{
		Entity:  "products",
		Version: "1.0",
		Columns: []spreadsheet.Column{
			{Name: "category", Description: "Category name, created when missing", Required: true, Type: "string", Example: "Laptops"},
			{Name: "type", Description: "Asset type within the category, created when missing", Required: true, Type: "string", Example: "ThinkPad"},
			{Name: "name", Description: "Display name", Type: "string", Example: "Finance laptop 12"},
			{Name: "brand", Description: "Manufacturer", Type: "string", Example: "Lenovo"},
			{Name: "model", Description: "Model number", Type: "string", Example: "T14 Gen 3"},
			{Name: "specifications", Description: "Free-form specifications", Type: "string", Example: "16GB RAM, 512GB SSD"},
			{Name: "serialNumber", Description: "Manufacturer serial number", Type: "string", Example: "PF3XK2LM"},
			{Name: "tag", Description: "Asset tag, defaults to unassigned", Type: "string", Example: "IT-0042"},
			{Name: "condition", Description: "Physical condition", Type: "string", Example: "good"},
			{Name: "status", Description: "Lifecycle status", Type: "string", Example: "in_use"},
			{Name: "purchaseDate", Description: "Date cell or YYYY-MM-DD", Type: "date", Example: "2021-01-01"},
			{Name: "warrantyExpiry", Description: "Date cell or YYYY-MM-DD", Type: "date", Example: "2024-01-01"},
			{Name: "branch", Description: "Branch, ignored for branch-scoped operators", Type: "string", Example: "HQ"},
			{Name: "remarks", Description: "Notes", Type: "string", Example: ""},
		},
	}
}

// ImportProducts creates one product per row. Rows are independent: a failed
// row is reported and the next one processed. Taxonomy entries created for a
// row are kept even when its product cannot be created.
func (s *ImportService) ImportProducts(ctx context.Context, rows []spreadsheet.Row, workspace string, caller Caller) (*ImportResult, error) {
	if workspace == "" {
		workspace = caller.Workspace
	}

	result := &ImportResult{TotalRows: len(rows)}
	cache := NewResolveCache()
	logger := logrus.WithFields(logrus.Fields{
		"workspace":  workspace,
		"created_by": caller.UserID,
	})

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			logger.WithError(err).Warn("Import cancelled")
			return result, err
		}

		product, rowErr := s.importRow(ctx, row, workspace, caller, cache)
		if rowErr != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, *rowErr)
			logger.WithFields(logrus.Fields{
				"row":  row.Number,
				"code": rowErr.Code,
			}).Warn(rowErr.Message)
			continue
		}

		result.ImportedCount++
		result.CreatedIDs = append(result.CreatedIDs, product.ID)

		if err := s.counts.IncrementAssetCount(ctx, product.TypeID, 1); err != nil {
			result.Warnings = append(result.Warnings, ImportRowError{
				Row:     row.Number,
				Column:  "type",
				Code:    ImportCodeCountNotUpdated,
				Message: fmt.Sprintf("product created but asset count not updated: %v", err),
			})
			logger.WithError(err).WithFields(logrus.Fields{
				"row":        row.Number,
				"product_id": product.ID,
			}).Error("Asset count not incremented after import")
			continue
		}

		logger.WithFields(logrus.Fields{
			"row":        row.Number,
			"product_id": product.ID,
		}).Debug("Row imported")
	}

	logger.WithFields(logrus.Fields{
		"total":    result.TotalRows,
		"imported": result.ImportedCount,
		"failed":   result.FailedCount,
	}).Info("Product import finished")
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, row spreadsheet.Row, workspace string, caller Caller, cache *ResolveCache) (*models.Product, *ImportRowError) {
	fail := func(column, code, format string, args ...interface{}) *ImportRowError {
		return &ImportRowError{Row: row.Number, Column: column, Code: code, Message: fmt.Sprintf(format, args...)}
	}

	rec, err := DecodeImportRow(row)
	if err != nil {
		return nil, fail("", ImportCodeInvalidRow, "row could not be read: %v", err)
	}
	if rec.Category == "" {
		return nil, fail("category", ImportCodeRequiredField, "category is required")
	}
	if rec.Type == "" {
		return nil, fail("type", ImportCodeRequiredField, "type is required")
	}

	purchaseDate, err := ParseDateCell(rec.PurchaseDate)
	if err != nil {
		return nil, fail("purchaseDate", ImportCodeInvalidDate, "%v", err)
	}
	warrantyExpiry, err := ParseDateCell(rec.WarrantyExpiry)
	if err != nil {
		return nil, fail("warrantyExpiry", ImportCodeInvalidDate, "%v", err)
	}

	category, assetType, err := s.taxonomy.Resolve(ctx, workspace, rec.Category, rec.Type, cache)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, fail(verr.Field, ImportCodeRequiredField, "%s", verr.Message)
		}
		return nil, fail("category", ImportCodeTaxonomyFailed, "%v", err)
	}

	tag := rec.Tag
	if tag == "" {
		tag = s.defaultTag
	}

	product := &models.Product{
		CategoryID:     category.ID,
		TypeID:         assetType.ID,
		CategoryName:   category.Name,
		TypeName:       assetType.Name,
		Name:           rec.Name,
		Brand:          rec.Brand,
		Model:          rec.Model,
		Specifications: rec.Specifications,
		SerialNumber:   rec.SerialNumber,
		Tag:            tag,
		Condition:      rec.Condition,
		Status:         rec.Status,
		PurchaseDate:   purchaseDate,
		WarrantyExpiry: warrantyExpiry,
		Remarks:        rec.Remarks,
		Workspace:      workspace,
		Branch:         EffectiveBranch(caller, rec.Branch),
		CreatedBy:      caller.UserID,
	}
	if len(rec.Extra) > 0 {
		product.Extra = models.JSONB(rec.Extra)
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fail("", ImportCodeCreateFailed, "product could not be saved: %v", err)
	}
	return product, nil
}

// DecodeImportRow maps a parsed row onto ImportRow, coercing loosely typed
// cells to strings and trimming them. A canonical column always wins over
// its aliases; among aliases the first non-blank one in name order is used.
func DecodeImportRow(row spreadsheet.Row) (*ImportRow, error) {
	input := make(map[string]interface{}, len(row.Values))
	for key, value := range row.Values {
		if _, alias := columnAliases[key]; !alias {
			input[key] = value
		}
	}
	for _, alias := range aliasNames {
		value, ok := row.Get(alias)
		if !ok || isBlank(value) {
			continue
		}
		key := columnAliases[alias]
		if current, taken := input[key]; taken && !isBlank(current) {
			continue
		}
		input[key] = value
	}

	var out ImportRow
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(input); err != nil {
		return nil, err
	}

	for _, field := range []*string{
		&out.Category, &out.Type, &out.Name, &out.Brand, &out.Model,
		&out.Specifications, &out.SerialNumber, &out.Tag, &out.Condition,
		&out.Status, &out.Branch, &out.Remarks,
	} {
		*field = strings.TrimSpace(*field)
	}
	return &out, nil
}

func isBlank(v interface{}) bool {
	return v == nil || strings.TrimSpace(cast.ToString(v)) == ""
}

// SerialToDate converts a spreadsheet date serial to its calendar date,
// dropping any time-of-day fraction.
func SerialToDate(serial float64) time.Time {
	days := math.Floor(serial) - excelEpochOffset
	return models.DateOnly(time.Unix(0, 0).UTC().AddDate(0, 0, int(days)))
}

// ParseDateCell accepts a date serial (number or numeric string) or any
// textual date dateparse understands. Digit strings shaped like a year or a
// compact yyyymmdd date are read as such. Blank cells yield nil.
func ParseDateCell(v interface{}) (*time.Time, error) {
	if isBlank(v) {
		return nil, nil
	}

	if t, ok := v.(time.Time); ok {
		date := models.DateOnly(t)
		return &date, nil
	}

	s := strings.TrimSpace(cast.ToString(v))
	if !compactDate.MatchString(s) {
		if serial, err := cast.ToFloat64E(s); err == nil {
			if serial < minDateSerial || serial >= maxDateSerial+1 {
				return nil, fmt.Errorf("date serial %q out of range", s)
			}
			date := SerialToDate(serial)
			return &date, nil
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("unrecognised date %q", s)
	}
	date := models.DateOnly(t)
	return &date, nil
}
