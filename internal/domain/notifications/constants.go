package notifications

const (
	TypeEvaluationSent         = "evaluation_sent"
	TypeEvaluationAcknowledged = "evaluation_acknowledged"
	TypeEvaluationContested    = "evaluation_contested"
	TypeEvaluationPendingHR    = "evaluation_pending_hr"
	TypeEvaluationClosed       = "evaluation_closed"
	TypeEvaluationReopened     = "evaluation_reopened"
	TypeMilestoneOverdue       = "milestone_overdue"
	TypeMilestoneDueSoon       = "milestone_due_soon"
)
