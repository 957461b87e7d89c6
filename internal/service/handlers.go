package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// Service names of the multas.v1 API.
const (
	AuthServiceName      = "multas.v1.AuthService"
	GroupServiceName     = "multas.v1.GroupService"
	EvidenceServiceName  = "multas.v1.EvidenceService"
	ChallengeServiceName = "multas.v1.ChallengeService"
	LogServiceName       = "multas.v1.LogService"
)

// Fully-qualified procedure names, used as HTTP paths.
const (
	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"

	GroupServiceCreateGroupProcedure      = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceJoinGroupProcedure        = "/" + GroupServiceName + "/JoinGroup"
	GroupServiceListGroupsProcedure       = "/" + GroupServiceName + "/ListGroups"
	GroupServiceGetGroupProcedure         = "/" + GroupServiceName + "/GetGroup"
	GroupServiceUpdateFineAmountProcedure = "/" + GroupServiceName + "/UpdateFineAmount"
	GroupServiceChangeEncargadoProcedure  = "/" + GroupServiceName + "/ChangeEncargado"
	GroupServiceGetGroupSummaryProcedure  = "/" + GroupServiceName + "/GetGroupSummary"
	GroupServiceListParticipantsProcedure = "/" + GroupServiceName + "/ListParticipants"
	GroupServiceUpdateObjectiveProcedure  = "/" + GroupServiceName + "/UpdateObjective"
	GroupServiceAdjustFineProcedure       = "/" + GroupServiceName + "/AdjustFine"
	GroupServiceCloseWeekIfDueProcedure   = "/" + GroupServiceName + "/CloseWeekIfDue"

	EvidenceServiceSubmitEvidenceProcedure = "/" + EvidenceServiceName + "/SubmitEvidence"
	EvidenceServiceListEvidenceProcedure   = "/" + EvidenceServiceName + "/ListEvidence"
	EvidenceServiceReviewEvidenceProcedure = "/" + EvidenceServiceName + "/ReviewEvidence"

	ChallengeServiceCreateChallengeProcedure    = "/" + ChallengeServiceName + "/CreateChallenge"
	ChallengeServiceListChallengesProcedure     = "/" + ChallengeServiceName + "/ListChallenges"
	ChallengeServiceRespondToChallengeProcedure = "/" + ChallengeServiceName + "/RespondToChallenge"
	ChallengeServiceResolveChallengeProcedure   = "/" + ChallengeServiceName + "/ResolveChallenge"

	LogServiceListLogsProcedure = "/" + LogServiceName + "/ListLogs"
)

// withCodec puts JSONCodec in front of the caller's options.
func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewAuthServiceHandler builds an HTTP handler for the AuthService. Register
// and Login are public; authed is added to GetCurrentUser only.
func NewAuthServiceHandler(svc *AuthService, authed connect.Interceptor, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	private := append(append([]connect.HandlerOption{}, opts...), connect.WithInterceptors(authed))

	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	mux.Handle(AuthServiceGetCurrentUserProcedure, connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, private...))
	return "/" + AuthServiceName + "/", mux
}

// NewGroupServiceHandler builds an HTTP handler for the GroupService.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)

	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceJoinGroupProcedure, connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceUpdateFineAmountProcedure, connect.NewUnaryHandler(GroupServiceUpdateFineAmountProcedure, svc.UpdateFineAmount, opts...))
	mux.Handle(GroupServiceChangeEncargadoProcedure, connect.NewUnaryHandler(GroupServiceChangeEncargadoProcedure, svc.ChangeEncargado, opts...))
	mux.Handle(GroupServiceGetGroupSummaryProcedure, connect.NewUnaryHandler(GroupServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts...))
	mux.Handle(GroupServiceListParticipantsProcedure, connect.NewUnaryHandler(GroupServiceListParticipantsProcedure, svc.ListParticipants, opts...))
	mux.Handle(GroupServiceUpdateObjectiveProcedure, connect.NewUnaryHandler(GroupServiceUpdateObjectiveProcedure, svc.UpdateObjective, opts...))
	mux.Handle(GroupServiceAdjustFineProcedure, connect.NewUnaryHandler(GroupServiceAdjustFineProcedure, svc.AdjustFine, opts...))
	mux.Handle(GroupServiceCloseWeekIfDueProcedure, connect.NewUnaryHandler(GroupServiceCloseWeekIfDueProcedure, svc.CloseWeekIfDue, opts...))
	return "/" + GroupServiceName + "/", mux
}

// NewEvidenceServiceHandler builds an HTTP handler for the EvidenceService.
func NewEvidenceServiceHandler(svc *EvidenceService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)

	mux := http.NewServeMux()
	mux.Handle(EvidenceServiceSubmitEvidenceProcedure, connect.NewUnaryHandler(EvidenceServiceSubmitEvidenceProcedure, svc.SubmitEvidence, opts...))
	mux.Handle(EvidenceServiceListEvidenceProcedure, connect.NewUnaryHandler(EvidenceServiceListEvidenceProcedure, svc.ListEvidence, opts...))
	mux.Handle(EvidenceServiceReviewEvidenceProcedure, connect.NewUnaryHandler(EvidenceServiceReviewEvidenceProcedure, svc.ReviewEvidence, opts...))
	return "/" + EvidenceServiceName + "/", mux
}

// NewChallengeServiceHandler builds an HTTP handler for the ChallengeService.
func NewChallengeServiceHandler(svc *ChallengeService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)

	mux := http.NewServeMux()
	mux.Handle(ChallengeServiceCreateChallengeProcedure, connect.NewUnaryHandler(ChallengeServiceCreateChallengeProcedure, svc.CreateChallenge, opts...))
	mux.Handle(ChallengeServiceListChallengesProcedure, connect.NewUnaryHandler(ChallengeServiceListChallengesProcedure, svc.ListChallenges, opts...))
	mux.Handle(ChallengeServiceRespondToChallengeProcedure, connect.NewUnaryHandler(ChallengeServiceRespondToChallengeProcedure, svc.RespondToChallenge, opts...))
	mux.Handle(ChallengeServiceResolveChallengeProcedure, connect.NewUnaryHandler(ChallengeServiceResolveChallengeProcedure, svc.ResolveChallenge, opts...))
	return "/" + ChallengeServiceName + "/", mux
}

// NewLogServiceHandler builds an HTTP handler for the LogService.
func NewLogServiceHandler(svc *LogService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)

	mux := http.NewServeMux()
	mux.Handle(LogServiceListLogsProcedure, connect.NewUnaryHandler(LogServiceListLogsProcedure, svc.ListLogs, opts...))
	return "/" + LogServiceName + "/", mux
}
