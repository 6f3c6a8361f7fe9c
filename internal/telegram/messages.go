package telegram

import (
	"fmt"

	"stampbot/internal/models"
	"stampbot/internal/settings"
)

const pdfMIME = "application/pdf"

const usageText = `Send me a PDF and I will stamp a watermark on every page.

Commands:
/set_watermark key=value ... - change your watermark
/settings - show your current watermark
/reset - go back to the defaults
/help - show this message

Keys: text, size, angle, color (gray, red, blue), position (top-left, top-right, center, bottom-left, bottom-right), font.
Example: /set_watermark text="TOP SECRET" size=60 angle=90 color=red position=top-right`

func receivedText(fileName string) string {
	return fmt.Sprintf("📥 %s received. Added to queue. Please wait...", fileName)
}

func processingText(fileName string) string {
	return fmt.Sprintf("🖋️ Processing %s...", fileName)
}

func archiveCaption(userID int64, sum string) string {
	caption := fmt.Sprintf("📥 From user ID: %d", userID)
	if sum != "" {
		caption += "\nSHA-256: " + sum
	}
	return caption
}

func watermarkSetText(cfg models.WatermarkConfig) string {
	return "✅ Watermark Set:\n" + settings.Summary(cfg)
}

func currentSettingsText(cfg models.WatermarkConfig, saved bool) string {
	if !saved {
		return "No watermark set yet. /set_watermark starts from these defaults:\n" + settings.Summary(cfg)
	}
	return "Current watermark:\n" + settings.Summary(cfg)
}

func resetText(cfg models.WatermarkConfig) string {
	return "♻️ Watermark reset to defaults:\n" + settings.Summary(cfg)
}

func fileTooLargeText(limit int64) string {
	return fmt.Sprintf("⚠️ The file is too large. The limit is %d MB.", limit/(1024*1024))
}

func errorText(msg string) string {
	return "❌ " + msg
}

func warningText(msg string) string {
	return "⚠️ " + msg
}
