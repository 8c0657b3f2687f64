package dto

// GetRecentKillmailsInput is the input for listing recently ingested killmails
type GetRecentKillmailsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum number of killmails to return"`
}

// GetKillmailInput is the input for fetching a single enriched killmail
type GetKillmailInput struct {
	KillmailID int64 `path:"killmail_id" minimum:"1" doc:"Killmail ID"`
}
