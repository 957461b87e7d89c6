package service

// Wire messages for the multas.v1 services. Field names follow the JSON
// mapping the web client already consumes.

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

type Group struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Code              string `json:"code"`
	AdminID           string `json:"adminId"`
	EncargadoID       string `json:"encargadoId"`
	CurrentFineAmount int64  `json:"currentFineAmount"`
	CreatedAt         int64  `json:"createdAt"`
}

type Participant struct {
	UserID           string `json:"userId"`
	GroupID          string `json:"groupId"`
	Username         string `json:"username"`
	AccumulatedFine  int64  `json:"accumulatedFine"`
	CurrentObjective string `json:"currentObjective"`
	HasWildcard      bool   `json:"hasWildcard"`
}

type Standing struct {
	UserID          string  `json:"userId"`
	Username        string  `json:"username"`
	AccumulatedFine int64   `json:"accumulatedFine"`
	Share           float64 `json:"share"`
	Rank            int     `json:"rank"`
}

type Evidence struct {
	ID            string `json:"id"`
	GroupID       string `json:"groupId"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	WeekID        string `json:"weekId"`
	Description   string `json:"description"`
	AttachmentRef string `json:"attachmentRef,omitempty"`
	Status        string `json:"status"`
	Timestamp     int64  `json:"timestamp"`
}

type Challenge struct {
	ID             string `json:"id"`
	GroupID        string `json:"groupId"`
	ChallengerID   string `json:"challengerId"`
	ChallengerName string `json:"challengerName"`
	ChallengedID   string `json:"challengedId"`
	ChallengedName string `json:"challengedName"`
	Description    string `json:"description"`
	FineAmount     int64  `json:"fineAmount"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"createdAt"`
}

type LogEntry struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// AuthService

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// GroupService

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type JoinGroupRequest struct {
	Code string `json:"code"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateFineAmountRequest struct {
	GroupID string `json:"groupId"`
	Amount  int64  `json:"amount"`
}

type ChangeEncargadoRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type GetGroupSummaryRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupSummaryResponse struct {
	Group        *Group         `json:"group"`
	Participants []*Participant `json:"participants"`
	Pot          int64          `json:"pot"`
	Standings    []*Standing    `json:"standings"`
}

type ListParticipantsRequest struct {
	GroupID string `json:"groupId"`
}

type ListParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type UpdateObjectiveRequest struct {
	GroupID   string `json:"groupId"`
	UserID    string `json:"userId"`
	Objective string `json:"objective"`
}

type AdjustFineRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	Amount  int64  `json:"amount"`
}

type ParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type CloseWeekIfDueRequest struct {
	GroupID string `json:"groupId"`
}

type CloseWeekIfDueResponse struct {
	Processed  bool     `json:"processed"`
	WeekID     string   `json:"weekId,omitempty"`
	Defaulters []string `json:"defaulters,omitempty"`
	FineAmount int64    `json:"fineAmount,omitempty"`
}

// EvidenceService

type SubmitEvidenceRequest struct {
	GroupID       string `json:"groupId"`
	Description   string `json:"description"`
	AttachmentRef string `json:"attachmentRef"`
}

type ListEvidenceRequest struct {
	GroupID string `json:"groupId"`
}

type ListEvidenceResponse struct {
	Evidence []*Evidence `json:"evidence"`
}

type ReviewEvidenceRequest struct {
	EvidenceID string `json:"evidenceId"`
	Approve    bool   `json:"approve"`
}

type EvidenceResponse struct {
	Evidence *Evidence `json:"evidence"`
}

// ChallengeService

type CreateChallengeRequest struct {
	GroupID      string `json:"groupId"`
	ChallengedID string `json:"challengedId"`
	Description  string `json:"description"`
	FineAmount   int64  `json:"fineAmount"`
}

type ListChallengesRequest struct {
	GroupID string `json:"groupId"`
}

type ListChallengesResponse struct {
	Challenges []*Challenge `json:"challenges"`
}

type RespondToChallengeRequest struct {
	ChallengeID string `json:"challengeId"`
	Accept      bool   `json:"accept"`
}

type ResolveChallengeRequest struct {
	ChallengeID string `json:"challengeId"`
	WinnerID    string `json:"winnerId"`
}

type ChallengeResponse struct {
	Challenge *Challenge `json:"challenge"`
}

// LogService

type ListLogsRequest struct {
	GroupID string `json:"groupId"`
}

type ListLogsResponse struct {
	Logs []*LogEntry `json:"logs"`
}
