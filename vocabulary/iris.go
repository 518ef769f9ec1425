// Package vocabulary provides the RDF vocabulary terms read and written by
// the heatspace dataspace client, plus helpers for URL normalization and
// Turtle literal escaping.
package vocabulary

// Base IRI constants for the web vocabularies the client reads.
const (
	RDFNS     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	LDPNS     = "http://www.w3.org/ns/ldp#"
	FOAFNS    = "http://xmlns.com/foaf/0.1/"
	DCATNS    = "http://www.w3.org/ns/dcat#"
	DCTermsNS = "http://purl.org/dc/terms/"
	XSDNS     = "http://www.w3.org/2001/XMLSchema#"
	ASNS      = "https://www.w3.org/ns/activitystreams#"
)

// Core RDF and LDP terms.
const (
	// RDFType is the rdf:type predicate, read to detect dataset series
	// and access-decision resources.
	RDFType = RDFNS + "type"

	// LDPContains lists the resources held by a container.
	LDPContains = LDPNS + "contains"
	// LDPInbox points from a profile to its notification inbox.
	LDPInbox = LDPNS + "inbox"

	// FOAFMember points from a registry entry to a member identity.
	FOAFMember = FOAFNS + "member"
)

// DCAT catalog and dataset terms.
const (
	// DCATCatalog points from a member profile to its published catalog.
	DCATCatalog = DCATNS + "catalog"
	// DCATDataset lists the dataset descriptions of a catalog.
	DCATDataset = DCATNS + "dataset"
	// DCATDatasetSeries marks a container of datasets; series are never
	// sources themselves.
	DCATDatasetSeries = DCATNS + "DatasetSeries"
	// DCATDistribution lists the retrievable representations of a dataset.
	DCATDistribution = DCATNS + "distribution"
	// DCATDownloadURL is the preferred retrieval URL of a distribution.
	DCATDownloadURL = DCATNS + "downloadURL"
	// DCATAccessURL is the fallback retrieval URL of a distribution.
	DCATAccessURL = DCATNS + "accessURL"
)

// Dublin Core terms read from dataset descriptions.
const (
	DCTermsIdentifier   = DCTermsNS + "identifier"
	DCTermsTitle        = DCTermsNS + "title"
	DCTermsCreator      = DCTermsNS + "creator"
	DCTermsAccessRights = DCTermsNS + "accessRights"
	DCTermsCreated      = DCTermsNS + "created"
)

// SDMNS is the solid-dataspace-manager namespace carrying the
// access-request and access-decision vocabulary.
const SDMNS = "https://w3id.org/solid-dataspace-manager#"

// Access-request and access-decision terms.
const (
	SDMAccessRequest     = SDMNS + "AccessRequest"
	SDMAccessDecision    = SDMNS + "AccessDecision"
	SDMStatus            = SDMNS + "status"
	SDMDecision          = SDMNS + "decision"
	SDMDecidedAt         = SDMNS + "decidedAt"
	SDMExpiresAt         = SDMNS + "expiresAt"
	SDMMessage           = SDMNS + "message"
	SDMRequesterWebID    = SDMNS + "requesterWebId"
	SDMRequesterName     = SDMNS + "requesterName"
	SDMRequesterEmail    = SDMNS + "requesterEmail"
	SDMDatasetIdentifier = SDMNS + "datasetIdentifier"
	SDMDatasetTitle      = SDMNS + "datasetTitle"
	SDMDatasetAccessURL  = SDMNS + "datasetAccessUrl"
)

// Registry configuration terms read from the requester's own profile.
const (
	SDMRegistryMode    = SDMNS + "registryMode"
	SDMRegistry        = SDMNS + "registry"
	SDMPrivateRegistry = SDMNS + "privateRegistry"
)

// ASOffer is the activitystreams type attached to outgoing access requests.
const ASOffer = ASNS + "Offer"
