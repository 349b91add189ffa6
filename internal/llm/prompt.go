package llm

import (
	"fmt"
	"strings"
)

// BuildNoticePrompt asks for the structured fields of a department notice.
// The model must answer with a bare JSON object; fences are tolerated and
// stripped by the normalizer.
func BuildNoticePrompt(text string) string {
	return fmt.Sprintf(`Based on the content %s, provide a JSON object with the following keys and their corresponding values, extracted from the text:

- PAN (if available)
- Date
- DIN
- Address
- AssessmentYear
- Sections (as an array of legal section codes)
- Annexure (as an array of required item strings)

Return ONLY the JSON object. If a value is not present in the text, use null.`, text)
}

// BuildReplyPrompt asks for the structured fields of a client's reply to a
// department notice.
func BuildReplyPrompt(text string) string {
	return fmt.Sprintf(`Based on the Reply content %s from client to the notice given by department, generate a JSON object with the following keys and their corresponding values, extracted from the reply given by client:

- PAN (if available)
- Date as Reply_Date
- Subject
- DIN (if available)
- Reply_From
- AssessmentYear
- Sections (as an array)
- Reply_Email
- Reply_Mobile
- Reply_Content: generate a summary of each point and store in an array

Return ONLY the JSON object. If a value is not present in the text, use null.`, text)
}

// BuildFinalOpinionPrompt asks for a prose comparison of what the notice
// demanded (annexure) against what the client supplied. The answer is free
// text and is stored verbatim.
func BuildFinalOpinionPrompt(annexure, replyContent []string) string {
	var b strings.Builder
	b.WriteString("A tax department notice demanded the following documents/information from the taxpayer:\n")
	for i, item := range annexure {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\nThe taxpayer's reply covered the following points:\n")
	for i, item := range replyContent {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\nWrite a final opinion of about 1000 words comparing the items requested in the notice against what the client actually supplied in the reply. Point out items that were fully answered, partially answered, or not responded to, and assess the overall adequacy of the reply.")
	return b.String()
}
