package backends

import (
	"context"
	"fmt"

	"dbcopilot/internal/copilot"
)

// KindMongo identifies the MongoDB specialist.
const KindMongo copilot.Kind = "mongo"

// Mongo tool names. ToolMongoListCollections through ToolMongoSampleDocuments
// are discovery-safe; run_aggregation and run_command execute arbitrary
// pipelines/commands and stay specialist-only.
const (
	ToolMongoListCollections    = "list_collections"
	ToolMongoDescribeCollection = "describe_collection"
	ToolMongoSampleDocuments    = "sample_documents"
	ToolMongoRunAggregation     = "run_aggregation"
	ToolMongoRunCommand         = "run_command"
)

func newMongoRegistration(conn Connector) *copilot.Registration {
	return &copilot.Registration{
		Kind:         KindMongo,
		DisplayName:  "MongoDB",
		HandoffBlurb: "Document database: collections, aggregation pipelines, BSON documents.",
		Handoff: &copilot.HandoffSpec{
			ToolName:    "transfer_to_mongo_specialist",
			Description: "Transfer the conversation to the MongoDB specialist for collection exploration and aggregation queries.",
		},
		DiscoveryTools: []string{
			copilot.ToolListDataSources,
			ToolMongoListCollections,
			ToolMongoDescribeCollection,
			ToolMongoSampleDocuments,
		},
		// Method-call shapes and pipeline-stage markers of the mongo shell
		// query language, matched against lowercased attached content.
		ContentSignatures: []string{
			"db.",
			".find(",
			".aggregate(",
			".countdocuments(",
			".insertone(",
			".updateone(",
			"$match",
			"$group",
			"$lookup",
			"$unwind",
		},
		Keywords: []string{
			"mongo",
			"mongodb",
			"collection",
			"aggregation pipeline",
			"document database",
			"bson",
		},
		BuildSpecialist: func(rc copilot.RequestContext) (*copilot.AgentHandle, error) {
			return &copilot.AgentHandle{Kind: KindMongo, DisplayName: "MongoDB"}, nil
		},
		BuildTools: func(rc copilot.RequestContext) (*copilot.ToolSet, error) {
			return buildMongoTools(conn, rc)
		},
	}
}

func buildMongoTools(conn Connector, rc copilot.RequestContext) (*copilot.ToolSet, error) {
	set := copilot.NewToolSet()

	// Kind-scoped variant of the dispatcher's reserved tool. When aggregated
	// for triage the dispatcher's unscoped version wins by name.
	set.MustAdd(copilot.MustTool(
		copilot.ToolListDataSources,
		"List the MongoDB data sources available in this workspace.",
		copilot.ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "mongo"); err != nil {
				return "", err
			}
			targets, err := conn.ListTargets(ctx)
			if err != nil {
				return "", fmt.Errorf("list mongo data sources: %w", err)
			}
			return encodeTargets(targets)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolMongoListCollections,
		"List the collections in the connected MongoDB database.",
		copilot.ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "mongo"); err != nil {
				return "", err
			}
			targets, err := conn.ListTargets(ctx)
			if err != nil {
				return "", fmt.Errorf("list collections: %w", err)
			}
			return encodeTargets(targets)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolMongoDescribeCollection,
		"Show the shape of a collection via a representative document.",
		copilot.ToolSchema{
			Required: []string{"collection"},
			Properties: map[string]copilot.Property{
				"collection": {Type: "string", Description: "Collection name"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "mongo"); err != nil {
				return "", err
			}
			coll, err := stringArg(args, "collection")
			if err != nil {
				return "", err
			}
			return conn.Describe(ctx, coll)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolMongoSampleDocuments,
		"Fetch a few documents from a collection.",
		copilot.ToolSchema{
			Required: []string{"collection"},
			Properties: map[string]copilot.Property{
				"collection": {Type: "string", Description: "Collection name"},
				"limit":      {Type: "integer", Description: "Maximum documents to return", Default: 5},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "mongo"); err != nil {
				return "", err
			}
			coll, err := stringArg(args, "collection")
			if err != nil {
				return "", err
			}
			return conn.Sample(ctx, coll, intArg(args, "limit", 5))
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolMongoRunAggregation,
		"Run an aggregation pipeline against a collection. The pipeline is a JSON array of stages.",
		copilot.ToolSchema{
			Required: []string{"collection", "pipeline"},
			Properties: map[string]copilot.Property{
				"collection": {Type: "string", Description: "Collection name"},
				"pipeline":   {Type: "string", Description: "Aggregation pipeline as a JSON array"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "mongo"); err != nil {
				return "", err
			}
			coll, err := stringArg(args, "collection")
			if err != nil {
				return "", err
			}
			pipeline, err := stringArg(args, "pipeline")
			if err != nil {
				return "", err
			}
			command := fmt.Sprintf(`{"aggregate": %q, "pipeline": %s, "cursor": {}}`, coll, pipeline)
			return conn.Query(ctx, command)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolMongoRunCommand,
		"Run a raw MongoDB database command expressed as an extended-JSON document.",
		copilot.ToolSchema{
			Required: []string{"command"},
			Properties: map[string]copilot.Property{
				"command": {Type: "string", Description: "Database command document as JSON"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "mongo"); err != nil {
				return "", err
			}
			command, err := stringArg(args, "command")
			if err != nil {
				return "", err
			}
			return conn.Query(ctx, command)
		},
	))

	return set, nil
}
