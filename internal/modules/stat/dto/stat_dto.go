package dto

type OverviewResponse struct {
	TotalUsers        int64  `json:"totalUsers"`
	LiveThreads       int64  `json:"liveThreads"`
	LockedThreads     int64  `json:"lockedThreads"`
	LiveComments      int64  `json:"liveComments"`
	PendingReports    int64  `json:"pendingReports"`
	ModerationActions int64  `json:"moderationActions"`
	Window            string `json:"window"`
}
