package descriptions

import "sort"

// Tool names
const (
	WersAnalyze             = "wers_analyze"
	WersFlattenDocument     = "wers_flatten_document"
	WersExtractDescriptions = "wers_extract_descriptions"
	WersMatchCodes          = "wers_match_codes"
	WersServerInfo          = "wers_server_info"
)

// Long-form descriptions with examples and workflows

const (
	WersAnalyzeDescription = `Reconcile a WERS code list and a pasted VOCI list against one or two WERS documents.

**When to use:** You have a list of WERS option codes and need to know which of them appear in a WERS document (DOCX or PDF), in an optional second document, and in a VOCI list pasted from another system.

**What it returns:** One line per code with its source label and the description found next to it in document 1, a CFD completion time estimate (4 minutes per code, 8 hour days, plus one buffer day), and the path of a plain text report artifact.

**Source labels, by priority:**
• VOCI Only (in the VOCI list but in neither document)
• Both VOCI and WERS Document 1 and 2
• Both VOCI and WERS Document 1
• Both VOCI and WERS Document 2
• WERS Document 1 Only
• WERS Document 2 Only

Input codes found nowhere are dropped. VOCI codes missing from the input list are appended as VOCI Only.

**Examples:**
• "Check my 40 WERS codes against options-2025.docx"
• "Compare build-a.docx and build-b.pdf with these codes and this VOCI paste"

**Code lists:** Any text works. Every run of five upper-case letters or digits is taken as a code, so newline, comma and space separated lists all parse.`

	WersFlattenDocumentDescription = `Flatten a WERS document into numbered plain text.

**When to use:** To see exactly the text the analyzer searches for codes: numbered body paragraphs, then each table (cells joined by " | "), then section headers and footers.

**Examples:**
• "Show me the text of options-2025.docx"
• "Why wasn't CJTAB found in options.pdf?" → flatten it and look for the code

**Best practices:** Use before wers_match_codes when a match is unexpectedly missing.`

	WersExtractDescriptionsDescription = `Extract code to description pairs from a WERS document.

**When to use:** To list the option descriptions a document attaches to its codes, for example "Power Moonroof - CJTAB" yields CJTAB = Power Moonroof.

**How it works:** Paragraphs, table rows and single table cells that end in a 4 or 5 character code (letters, digits or $) are read as "description code". Table rows override paragraphs; single cells only fill codes nothing else described. Trailing "Note: ..." annotations are dropped from paragraphs and rows.

**Examples:**
• "What options does options-2025.docx describe?"
• "Give me the description for MPV$ in options.docx"`

	WersMatchCodesDescription = `Check which codes occur anywhere in a WERS document.

**When to use:** A quick presence check without VOCI reconciliation or a report artifact.

**What it returns:** The codes found and the codes missing, each in the order first given. Matching is a case-sensitive substring test over the flattened document.

**Examples:**
• "Are CJTAB, CJTAC and 54CAB in options-2025.docx?"`

	WersServerInfoDescription = `Get server information, available tools, the documents in the configured directory and the report location.

**When to use:** At the start of a session, to find which WERS documents can be analyzed and where reports are written.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	WersAnalyze:             WersAnalyzeDescription,
	WersFlattenDocument:     WersFlattenDocumentDescription,
	WersExtractDescriptions: WersExtractDescriptionsDescription,
	WersMatchCodes:          WersMatchCodesDescription,
	WersServerInfo:          WersServerInfoDescription,
}

// ToolInfo is the short usage summary shown in server info
type ToolInfo struct {
	Name        string
	Description string
	Usage       string
	Parameters  string
}

// Tools returns the usage summary of every tool in registration order
func Tools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        WersAnalyze,
			Description: GetToolDescription(WersAnalyze),
			Usage:       "Reconcile WERS and VOCI code lists against one or two documents and write a report.",
			Parameters: "doc1_path (required): document path, doc2_path (optional): second document, " +
				"input_codes (optional): WERS code list, voci_codes (optional): pasted VOCI codes",
		},
		{
			Name:        WersFlattenDocument,
			Description: GetToolDescription(WersFlattenDocument),
			Usage:       "Show the numbered text the analyzer searches.",
			Parameters:  "path (required): document path, relative to the document directory or absolute",
		},
		{
			Name:        WersExtractDescriptions,
			Description: GetToolDescription(WersExtractDescriptions),
			Usage:       "List code descriptions found in a document.",
			Parameters:  "path (required): document path, relative to the document directory or absolute",
		},
		{
			Name:        WersMatchCodes,
			Description: GetToolDescription(WersMatchCodes),
			Usage:       "Check which codes occur in a document.",
			Parameters:  "path (required): document path, codes (required): code list",
		},
		{
			Name:        WersServerInfo,
			Description: GetToolDescription(WersServerInfo),
			Usage:       "Show server configuration and available documents.",
			Parameters:  "No parameters required",
		},
	}
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
