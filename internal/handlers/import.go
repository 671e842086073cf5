// internal/handlers/import.go
package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/spreadsheet"
	"github.com/javajoker/assetdesk/internal/utils"
)

const templateSheetName = "Products"

type ImportHandler struct {
	importService *services.ImportService
	config        config.ImportConfig
}

func NewImportHandler(importService *services.ImportService, cfg config.ImportConfig) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		config:        cfg,
	}
}

// POST /products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyImportFileRequired), nil)
		return
	}

	if h.config.MaxFileMB > 0 && header.Size > int64(h.config.MaxFileMB)*1024*1024 {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			i18n.T(lang, i18n.KeyImportFileTooLarge, h.config.MaxFileMB), nil)
		return
	}

	format, err := spreadsheet.DetectFormat(header.Filename)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", i18n.T(lang, i18n.KeyImportUnsupported), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	defer file.Close()

	rows, err := spreadsheet.Parse(file, format)
	switch {
	case errors.Is(err, spreadsheet.ErrNoRows):
		utils.ErrorResponse(c, http.StatusBadRequest, "EMPTY_FILE", i18n.T(lang, i18n.KeyImportEmpty), nil)
		return
	case err != nil:
		logrus.WithError(err).WithField("filename", header.Filename).Warn("Unreadable import file")
		utils.ErrorResponse(c, http.StatusBadRequest, "UNREADABLE_FILE", i18n.T(lang, i18n.KeyImportUnreadable), err.Error())
		return
	}

	result, err := h.importService.ImportProducts(c.Request.Context(), rows, c.PostForm("workspace"), caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  caller.UserID,
		"filename": header.Filename,
		"imported": result.ImportedCount,
		"failed":   result.FailedCount,
	}).Info("Product import finished")

	utils.SuccessResponse(c, result)
}

// GET /products/import/template?format=xlsx|csv|json
func (h *ImportHandler) GetTemplate(c *gin.Context) {
	tmpl := services.ProductImportTemplate()

	var (
		buf         bytes.Buffer
		contentType string
		filename    string
		err         error
	)
	switch spreadsheet.Format(c.DefaultQuery("format", string(spreadsheet.FormatJSON))) {
	case spreadsheet.FormatJSON:
		utils.SuccessResponse(c, tmpl)
		return
	case spreadsheet.FormatCSV:
		err = tmpl.WriteCSV(&buf)
		contentType = "text/csv; charset=utf-8"
		filename = "products_template.csv"
	case spreadsheet.FormatXLSX:
		err = tmpl.WriteXLSX(&buf, templateSheetName)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "products_template.xlsx"
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", i18n.T(utils.GetLangFromContext(c), i18n.KeyImportUnsupported), nil)
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
