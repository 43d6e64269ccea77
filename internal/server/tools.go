package server

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names, without the operator-supplied namespace prefix.
const (
	toolGraphSchema    = "get_knowledge_graph_schema"
	toolGraphQuery     = "query_knowledge_graph"
	toolClinicalQuery  = "query_clinical_records"
	toolClinicalTables = "list_clinical_tables"
)

func graphSchemaSpec(prefix string) mcp.Tool {
	return mcp.NewTool(prefix+toolGraphSchema,
		mcp.WithDescription("List all nodes, their attributes and their relationships in the biomedical knowledge graph. "+
			"This provides the schema for drug-disease associations, protein interactions, pathways, "+
			"and other biomedical entities. Requires the APOC plugin to be installed and enabled."),
		mcp.WithTitleAnnotation("Get Knowledge Graph Schema"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func graphQuerySpec(prefix string) mcp.Tool {
	return mcp.NewTool(prefix+toolGraphQuery,
		mcp.WithDescription("Execute a read-only Cypher query on the biomedical knowledge graph for fast knowledge inference."),
		mcp.WithString("cypher_query",
			mcp.Required(),
			mcp.Description("The Cypher query for biomedical knowledge inference (e.g., drug-disease associations, protein interactions)"),
		),
		mcp.WithObject("parameters",
			mcp.Description("Parameters to pass to the knowledge graph query"),
		),
		mcp.WithTitleAnnotation("Query Biomedical Knowledge Graph"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func clinicalQuerySpec(prefix string) mcp.Tool {
	return mcp.NewTool(prefix+toolClinicalQuery,
		mcp.WithDescription("Execute a READ-ONLY SQL query on electronic health records for rapid clinical data retrieval."),
		mcp.WithString("sql_query",
			mcp.Required(),
			mcp.Description("SQL SELECT query for rapid clinical record retrieval (read-only)"),
		),
		mcp.WithTitleAnnotation("Query Electronic Health Records"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func clinicalTablesSpec(prefix string) mcp.Tool {
	return mcp.NewTool(prefix+toolClinicalTables,
		mcp.WithDescription("List all available clinical data tables in the electronic health records database."),
		mcp.WithTitleAnnotation("List Clinical Data Tables"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
