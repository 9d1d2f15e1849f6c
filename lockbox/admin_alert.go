package lockbox

import (
	"context"
	"fmt"
	"time"

	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/lockbox/v2/lockbox/monitoring"
)

// AdminAlertSystem manages administrative alerts for LockBox
type AdminAlertSystem struct {
	*logger.WrappedLogger
	
	alertManager *monitoring.AlertManager
	metrics      *monitoring.MetricsCollector
	
	// Alert channels
	criticalAlerts chan *monitoring.Alert
	warningAlerts  chan *monitoring.Alert
	
	// Configuration
	config *AdminAlertConfig
}

// AdminAlertConfig configures the admin alert system
type AdminAlertConfig struct {
	// Email configuration
	EmailEnabled bool
	EmailSMTPHost string
	EmailSMTPPort int
	EmailFrom     string
	EmailTo       []string
	
	// Webhook configuration
	WebhookEnabled bool
	WebhookURL     string
	WebhookSecret  string
	
	// PagerDuty configuration
	PagerDutyEnabled bool
	PagerDutyKey     string
	
	// Alert thresholds
	HighErrorRateThreshold float64
	LowTPSThreshold        float64
	HighTPSThreshold       float64
	HighMemoryThreshold    uint64
	HighLatencyThreshold   time.Duration
}

// NewAdminAlertSystem creates a new admin alert system
func NewAdminAlertSystem(log *logger.Logger, alertManager *monitoring.AlertManager, metrics *monitoring.MetricsCollector, config *AdminAlertConfig) *AdminAlertSystem {
	aas := &AdminAlertSystem{
		WrappedLogger:  logger.NewWrappedLogger(log),
		alertManager:   alertManager,
		metrics:        metrics,
		criticalAlerts: make(chan *monitoring.Alert, 100),
		warningAlerts:  make(chan *monitoring.Alert, 100),
		config:         config,
	}
	
	// Register custom alert handlers
	aas.registerAlertHandlers()
	
	return aas
}

// Start starts the admin alert system
func (aas *AdminAlertSystem) Start(ctx context.Context) {
	// Subscribe to alert events
	aas.alertManager.Events.AlertTriggered.Hook(func(alert *monitoring.Alert) {
		aas.handleAlert(alert)
	})
	
	// Start alert processors
	go aas.processCriticalAlerts(ctx)
	go aas.processWarningAlerts(ctx)
	
	// Start monitoring
	go aas.monitorSystem(ctx)
	
	aas.LogInfo("Admin alert system started")
}

// registerAlertHandlers registers custom alert handlers
func (aas *AdminAlertSystem) registerAlertHandlers() {
	// Register email action
	if aas.config.EmailEnabled {
		aas.alertManager.AddRule(&monitoring.AlertRule{
			ID:       "admin-critical-email",
			Name:     "Critical Alert Email",
			Type:     monitoring.AlertTypeError,
			Severity: monitoring.SeverityCritical,
			Condition: &AlwaysTrueCondition{},
			Actions: []monitoring.AlertAction{
				&EmailAlertAction{config: aas.config},
			},
		})
	}
	
	// Register webhook action
	if aas.config.WebhookEnabled {
		aas.alertManager.AddRule(&monitoring.AlertRule{
			ID:       "admin-critical-webhook",
			Name:     "Critical Alert Webhook",
			Type:     monitoring.AlertTypeError,
			Severity: monitoring.SeverityCritical,
			Condition: &AlwaysTrueCondition{},
			Actions: []monitoring.AlertAction{
				&WebhookAlertAction{config: aas.config},
			},
		})
	}
	
	// Register PagerDuty action
	if aas.config.PagerDutyEnabled {
		aas.alertManager.AddRule(&monitoring.AlertRule{
			ID:       "admin-critical-pagerduty",
			Name:     "Critical Alert PagerDuty",
			Type:     monitoring.AlertTypeError,
			Severity: monitoring.SeverityCritical,
			Condition: &AlwaysTrueCondition{},
			Actions: []monitoring.AlertAction{
				&PagerDutyAlertAction{config: aas.config},
			},
		})
	}
}

// handleAlert handles incoming alerts
func (aas *AdminAlertSystem) handleAlert(alert *monitoring.Alert) {
	switch alert.Severity {
	case monitoring.SeverityCritical:
		select {
		case aas.criticalAlerts <- alert:
		default:
			aas.LogWarn("Critical alert channel full, dropping alert")
		}
	case monitoring.SeverityWarning:
		select {
		case aas.warningAlerts <- alert:
		default:
			aas.LogWarn("Warning alert channel full, dropping alert")
		}
	}
}

// processCriticalAlerts processes critical alerts
func (aas *AdminAlertSystem) processCriticalAlerts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-aas.criticalAlerts:
			aas.LogErrorf("CRITICAL ALERT: %s - %s", alert.Title, alert.Description)
			
			// Send immediate notifications
			if aas.config.EmailEnabled {
				aas.sendEmailAlert(alert)
			}
			if aas.config.WebhookEnabled {
				aas.sendWebhookAlert(alert)
			}
			if aas.config.PagerDutyEnabled {
				aas.sendPagerDutyAlert(alert)
			}
		}
	}
}

// processWarningAlerts processes warning alerts
func (aas *AdminAlertSystem) processWarningAlerts(ctx context.Context) {
	// Batch warning alerts
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	
	batch := make([]*monitoring.Alert, 0)
	
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-aas.warningAlerts:
			batch = append(batch, alert)
		case <-ticker.C:
			if len(batch) > 0 {
				aas.sendBatchedWarnings(batch)
				batch = make([]*monitoring.Alert, 0)
			}
		}
	}
}

// monitorSystem monitors system health
func (aas *AdminAlertSystem) monitorSystem(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics := aas.metrics.GetMetrics()
			aas.alertManager.EvaluateRules(ctx, metrics)
		}
	}
}

// sendEmailAlert sends email alert
func (aas *AdminAlertSystem) sendEmailAlert(alert *monitoring.Alert) {
	// Implementation would send actual email
	aas.LogInfof("Sending email alert: %s", alert.Title)
}

// sendWebhookAlert sends webhook alert
func (aas *AdminAlertSystem) sendWebhookAlert(alert *monitoring.Alert) {
	// Implementation would call webhook
	aas.LogInfof("Sending webhook alert: %s", alert.Title)
}

// sendPagerDutyAlert sends PagerDuty alert
func (aas *AdminAlertSystem) sendPagerDutyAlert(alert *monitoring.Alert) {
	// Implementation would create PagerDuty incident
	aas.LogInfof("Sending PagerDuty alert: %s", alert.Title)
}

// sendBatchedWarnings sends batched warning alerts
func (aas *AdminAlertSystem) sendBatchedWarnings(alerts []*monitoring.Alert) {
	summary := fmt.Sprintf("Warning Summary: %d alerts", len(alerts))
	aas.LogWarnf(summary)
	
	// Send summary email/webhook
	if aas.config.EmailEnabled {
		// Send batched email
	}
}

// Custom alert conditions and actions

// AlwaysTrueCondition always evaluates to true
type AlwaysTrueCondition struct{}

func (c *AlwaysTrueCondition) Evaluate(ctx context.Context, data interface{}) (bool, string) {
	return true, "Always true condition"
}

// EmailAlertAction sends email alerts
type EmailAlertAction struct {
	config *AdminAlertConfig
}

func (a *EmailAlertAction) Execute(ctx context.Context, alert *monitoring.Alert) error {
	// Send email implementation
	return nil
}

// WebhookAlertAction sends webhook alerts
type WebhookAlertAction struct {
	config *AdminAlertConfig
}

func (a *WebhookAlertAction) Execute(ctx context.Context, alert *monitoring.Alert) error {
	// Send webhook implementation
	return nil
}

// PagerDutyAlertAction sends PagerDuty alerts
type PagerDutyAlertAction struct {
	config *AdminAlertConfig
}

func (a *PagerDutyAlertAction) Execute(ctx context.Context, alert *monitoring.Alert) error {
	// Send PagerDuty alert implementation
	return nil
}