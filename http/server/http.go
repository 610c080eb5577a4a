package server

const (
	ContentTypeEventStream = "text/event-stream"
	ContentTypeJson        = "application/json"
	ContentTypeProblemJson = "application/problem+json"
	ContentTypeXml         = "text/xml"

	HeaderAuthorization = "Authorization"
	HeaderCacheControl  = "Cache-Control"
	HeaderContentType   = "Content-Type"

	PathServicesBundle            = "/services/{serviceKey}/bundle"
	PathServicesDescriptionsDraft = "/services/{serviceKey}/descriptions/draft"
	PathServicesDiagram           = "/services/{serviceKey}/diagram"
	PathServicesDiagramEvents     = "/services/{serviceKey}/diagram/events"
	PathServicesExport            = "/services/{serviceKey}/export"
	PathServicesTransfer          = "/services/{serviceKey}/transfer"
	PathServicesTransfers         = "/services/{serviceKey}/transfers"

	PathReadiness = "/readiness"

	QueryOrigin = "origin"

	EventDiagramSaved = "diagram-saved"
)
