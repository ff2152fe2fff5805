package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	appcontext "github.com/SeakMengs/QRCatalog/internal/app_context"
	"github.com/SeakMengs/QRCatalog/internal/config"
	"github.com/SeakMengs/QRCatalog/internal/controller"
	"github.com/SeakMengs/QRCatalog/internal/route"
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
)

var demoProducts = []string{
	"Teclado mecanico",
	"Mouse inalambrico",
	"Audifonos Bluetooth inalambricos con microfono",
	"Cable USB-C 2m",
	"Parlante portatil resistente al agua",
	"Cargador rapido 20W",
	"Soporte para notebook",
	"Camara web Full HD",
	"Disco SSD externo 1TB",
	"Hub USB 4 puertos",
	"Lampara LED de escritorio",
	"Mochila para notebook 15 pulgadas",
	"Smartwatch deportivo",
	"Powerbank 10000mAh",
}

func newDemoCmd(configPath *string) *cobra.Command {
	var (
		addr      string
		sheetPath string
		rows      int
		batch     string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve fake product pages next to the catalog endpoint and write a spreadsheet pointing at them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if batch == "" {
				code, err := util.GenerateCode(4)
				if err != nil {
					return err
				}
				batch = code
			}
			return runDemo(ctx, cfg, addr, sheetPath, rows, batch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8088", "Address to serve the product pages on")
	cmd.Flags().StringVar(&sheetPath, "sheet", "demo.csv", "Where to write the demo spreadsheet")
	cmd.Flags().IntVar(&rows, "rows", len(demoProducts), "Number of products")
	cmd.Flags().StringVar(&batch, "batch", "", "Batch part of the product codes, random when empty")

	return cmd
}

// newDemoRouter is the catalog engine with the product pages of batch mounted on /p/:id.
func newDemoRouter(app *appcontext.Application, batch string) (*gin.Engine, *controller.ProductPageController) {
	r := route.NewEngine(app)
	pc := controller.NewProductPageController(batch, demoProducts)
	route.ProductPages(r, pc)
	return r, pc
}

func writeDemoSheet(path, baseURL string, pc *controller.ProductPageController, rows int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{qrcatalog.DefaultLinkColumn, qrcatalog.DefaultNameColumn})
	for i := range rows {
		w.Write([]string{fmt.Sprintf("%s/p/%d", baseURL, i+1), pc.ProductName(i)})
	}
	w.Flush()

	return w.Error()
}

func runDemo(ctx context.Context, cfg config.Config, addr, sheetPath string, rows int, batch string) error {
	app, err := newApplication(&cfg)
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	router, pc := newDemoRouter(app, batch)

	baseURL := "http://" + ln.Addr().String()
	if err := writeDemoSheet(sheetPath, baseURL, pc, rows); err != nil {
		ln.Close()
		return fmt.Errorf("write demo sheet: %w", err)
	}

	fmt.Printf("Serving %d demo products on %s\n", rows, baseURL)
	fmt.Printf("Run: qrcatalog generate %s\n", sheetPath)
	fmt.Printf("  or: curl -F file=@%s %s/api/v1/catalogs -o catalogo.pdf\n", sheetPath, baseURL)

	return serveHTTP(ctx, ln, router)
}
