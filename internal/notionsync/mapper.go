package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// untitled is the page title when the transfer names no recipient.
const untitled = "Transferencia"

// TransferToNotionProperties converts a normalized transfer to Notion properties.
// The database needs these columns: Recipient (title), Amount (number),
// Date (date), Type (select), Processed At (date) and one text column per
// remaining field. Absent fields are left out.
func TransferToNotionProperties(t pipeline.Transfer, processedAt time.Time) notionapi.Properties {
	title := untitled
	if t.RecipientName != nil {
		title = *t.RecipientName
	}

	processed := notionapi.Date(processedAt.UTC())
	props := notionapi.Properties{
		"Recipient": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: title},
				},
			},
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: t.TransferType.String()},
		},
		"Processed At": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &processed},
		},
	}

	if t.Amount != nil {
		props["Amount"] = notionapi.NumberProperty{Number: float64(*t.Amount)}
	}

	// Unparsable dates still reach the ledger as text.
	if t.Date != nil {
		if d, err := time.Parse("02/01/2006", *t.Date); err == nil {
			nd := notionapi.Date(d)
			props["Date"] = notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &nd},
			}
		} else {
			props["Date Text"] = richText(*t.Date)
		}
	}

	for name, v := range map[string]*string{
		"CUIT":               t.CUIT,
		"DNI":                t.DNI,
		"CBU":                t.CBU,
		"Alias":              t.Alias,
		"Sender":             t.SenderName,
		"Transaction Number": t.TransactionNumber,
		"Reference":          t.Reference,
		"Bank":               t.Bank,
		"Branch":             t.Branch,
	} {
		if v != nil {
			props[name] = richText(*v)
		}
	}

	return props
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}
