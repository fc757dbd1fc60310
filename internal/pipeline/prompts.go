package pipeline

import (
	"strings"
)

// PromptVersion identifies the instruction template. Bump it whenever the
// field list, the examples or the output rules change, so audited model
// outputs can be traced back to the instruction that produced them.
const PromptVersion = "transfer-extraction/v5"

// schemaField describes one key the model must emit.
type schemaField struct {
	Key         string
	Description string
}

// transferSchema is the field list shared by the instruction and the decoder.
var transferSchema = []schemaField{
	{"amount", "number or string, the transferred amount (see AMOUNT RULES)"},
	{"cuit", "string, the CUIT/CUIL tax ID"},
	{"dni", "string, the DNI national ID"},
	{"cbu", "string, the CBU/CVU bank account number"},
	{"alias", "string, the account alias"},
	{"recipient_name", "string, the name of the person or company receiving the money"},
	{"sender_name", "string, the name of the person or company sending the money"},
	{"date", "string, format DD/MM/YYYY"},
	{"transaction_number", "string, the transaction / operation / voucher number"},
	{"reference", "string, the reference, motive or concept of the transfer"},
	{"bank", "string, the bank name"},
	{"branch", "string, the bank branch"},
	{"transfer_type", "string, \"Con Factura\" if the message says the transfer is invoiced (con factura), otherwise \"Barrani\""},
}

// buildExtractionPrompt renders the instruction for one message.
func buildExtractionPrompt(sourceText string) string {
	var b strings.Builder

	b.WriteString("You extract bank transfer information from WhatsApp messages and bank receipts.\n\n")

	b.WriteString("Each transfer object must have these fields (use null if not found):\n")
	for _, f := range transferSchema {
		b.WriteString("- \"" + f.Key + "\": " + f.Description + "\n")
	}
	b.WriteString("\n")

	b.WriteString("AMOUNT RULES:\n")
	b.WriteString("1. Remove currency symbols and codes ($, ARS, USD) and thousands separators.\n")
	b.WriteString("2. A trailing \"m\" or \"M\" means millions: \"2.5m\" -> 2500000, \"1M\" -> 1000000, \"7,2m\" -> 7200000.\n")
	b.WriteString("3. \"$8,765,000\" -> 8765000. \"8.765.000\" -> 8765000. \"1.234,50\" -> 1234.\n")
	b.WriteString("4. Output the amount as a plain integer without separators.\n\n")

	b.WriteString("MULTIPLE TRANSFERS:\n")
	b.WriteString("1. If the message lists several amounts (e.g. \"1) 8.765.000 2) 7.623.000 3) 7.745.753\") under one set of account details, ")
	b.WriteString("return one object per amount, in the listed order, each repeating the same account fields.\n")
	b.WriteString("2. If the message contains a single transfer, return a single object.\n")
	b.WriteString("3. If the message is not about a bank transfer, return null.\n\n")

	b.WriteString("Message:\n")
	b.WriteString(sourceText)
	b.WriteString("\n\n")

	b.WriteString("Return ONLY valid raw JSON: a single object, an array of objects, or null.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT add comments or any text before or after the JSON.\n")

	return b.String()
}
