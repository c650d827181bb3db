package masav

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hesed/masav-batch/internal/masavfile"
)

// decodeCmd inspects an existing MASAV file.
var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a MASAV file and show its payments",
	Long: `Parse a MASAV file, verify its trailer totals and print the header
fields and every payment it carries. The Hebrew encoding is detected
automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: decodeFunc,
}

func init() {
	Cmd.AddCommand(decodeCmd)
}

func decodeFunc(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0]) // #nosec G304 -- operator-chosen file
	if err != nil {
		return fmt.Errorf("error reading masav file: %w", err)
	}

	decoded, err := masavfile.Decode(data)
	if err != nil {
		return fmt.Errorf("error decoding masav file: %w", err)
	}

	encoding := "code-a"
	if decoded.Encoding == masavfile.CodeB {
		encoding = "code-b"
	}
	fmt.Printf("Institution: %s %s\n", decoded.InstitutionID, decoded.InstitutionName)
	fmt.Printf("Payment date: %s, created %s, sequence %03d, encoding %s\n",
		decoded.PaymentDate.Format("2006-01-02"),
		decoded.CreationDate.Format("2006-01-02"),
		decoded.SequenceNumber, encoding)
	fmt.Printf("Payments: %d, total %s\n", len(decoded.Payments), decoded.TotalAmount.StringFixed(2))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BANK\tBRANCH\tACCOUNT\tID\tNAME\tAMOUNT")
	for _, p := range decoded.Payments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.BankCode, p.BranchCode, p.AccountNumber, p.BeneficiaryID,
			p.Name, p.Amount.StringFixed(2))
	}
	return w.Flush()
}
