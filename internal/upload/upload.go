// Package upload validates uploaded spreadsheets and simulates their
// progress and analysis before the dashboard is shown. File contents are
// never parsed.
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iwvelando/finance-dashboard/internal/notify"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
)

// ErrUnsupportedFileType is wrapped by every RejectionError.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var (
	rejectedNotification = notify.Notification{
		Title:       "Неподдерживаемый формат файла",
		Description: "Пожалуйста, загрузите файл Excel или Google Sheets",
		Destructive: true,
	}
	analyzedNotification = notify.Notification{
		Title:       "Анализ завершен",
		Description: "Данные успешно загружены и проанализированы",
	}
)

// RejectionError reports a file whose extension is not accepted.
type RejectionError struct {
	Filename     string
	Notification notify.Notification
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedFileType, e.Filename)
}

func (e *RejectionError) Unwrap() error { return ErrUnsupportedFileType }

// ValidateFilename accepts .xlsx, .xls, .csv and .gsheet files, ignoring case.
func ValidateFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	for _, accepted := range constants.SupportedUploadExtensions {
		if ext == accepted {
			return nil
		}
	}
	return &RejectionError{Filename: name, Notification: rejectedNotification}
}
