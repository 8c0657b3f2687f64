package dto

// GetRegionsActivityInput selects the history window for the regional view
type GetRegionsActivityInput struct {
	Hours int `query:"hours" default:"24" minimum:"1" maximum:"168" doc:"History window in hours"`
}

// GetSessionsInput filters and pages the archived session timeline
type GetSessionsInput struct {
	Limit          int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum number of sessions to return"`
	Offset         int    `query:"offset" default:"0" minimum:"0" doc:"Number of sessions to skip"`
	Classification string `query:"classification" doc:"Filter by classification (camp, solo_camp, smartbomb, roaming_camp, battle, roam, solo_roam, activity)"`
	Region         string `query:"region" doc:"Filter by region the session started or ended in"`
	Hours          int    `query:"hours" default:"24" minimum:"1" maximum:"720" doc:"Only sessions that started within this many hours"`
}

// GetSessionDetailInput identifies one archived session
type GetSessionDetailInput struct {
	SessionID string `path:"session_id" doc:"Session ID"`
}

// GetSessionStatsInput selects the window for the archive summary
type GetSessionStatsInput struct {
	Hours int `query:"hours" default:"24" minimum:"1" maximum:"720" doc:"Summary window in hours"`
}
