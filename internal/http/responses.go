package http

import (
	"fintrack/internal/feed"
	"fintrack/internal/report"
)

type (
	dashboardResponse struct {
		report.Dashboard
		SavingsRateLabel string `json:"savings_rate_label"`
	}

	notificationsResponse struct {
		Notifications []feed.Notification `json:"notifications"`
		Unread        int                 `json:"unread"`
	}

	markReadResponse struct {
		Updated int `json:"updated"`
		Unread  int `json:"unread"`
	}
)
