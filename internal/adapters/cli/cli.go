package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"erp-planning/internal/app"
)

const usage = `Available commands:
  materials                          plan job materials (MaterialsPlanRequest JSON on stdin)
  purchasing                         plan purchasing (PurchasingPlanRequest JSON on stdin)
  transfer <company> <location> [item...]
                                     replenish short shelves at a location
  schema <name>                      print a request JSON Schema`

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.PlanningService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "materials", "mat", "m":
		var req app.MaterialsPlanRequest
		if err := json.NewDecoder(in).Decode(&req); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		result, err := svc.PlanMaterials(ctx, req)
		if err != nil {
			return fmt.Errorf("plan materials: %w", err)
		}
		printResult(out, result)

	case "purchasing", "buy", "p":
		var req app.PurchasingPlanRequest
		if err := json.NewDecoder(in).Decode(&req); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		result, err := svc.PlanPurchasing(ctx, req)
		if err != nil {
			return fmt.Errorf("plan purchasing: %w", err)
		}
		printResult(out, result)

	case "transfer", "t":
		if len(args) < 3 {
			return fmt.Errorf("usage: planner transfer <company> <location> [item...]")
		}
		result, err := svc.PlanStockTransfer(ctx, app.StockTransferPlanRequest{
			CompanyID:  args[1],
			LocationID: args[2],
			ItemIDs:    args[3:],
		})
		if err != nil {
			return fmt.Errorf("plan stock transfer: %w", err)
		}
		printResult(out, result)

	case "schema":
		if len(args) < 2 {
			return fmt.Errorf("usage: planner schema <%s|%s|%s>",
				app.SchemaMaterialsPlan, app.SchemaPurchasingPlan, app.SchemaStockTransferPlan)
		}
		schema, err := svc.Schema(args[1])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func printResult(out io.Writer, result *app.PlanResult) {
	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-10s %s\n", "RUN", result.RunID)
	fmt.Fprintf(out, "  %-10s %s\n", "STATUS", status)
	if result.StockTransferID != "" {
		fmt.Fprintf(out, "  %-10s %s\n", "TRANSFER", result.StockTransferID)
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %s\n", result.Message)
	fmt.Fprintln(out, strings.Repeat("=", 62))
}
