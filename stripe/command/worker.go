package command

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"github.com/stripefs/stripefs/stripe/cluster"
	"github.com/stripefs/stripefs/stripe/reconstruction"
	"github.com/stripefs/stripefs/stripe/security"
	"github.com/stripefs/stripefs/stripe/server"
	"github.com/stripefs/stripefs/stripe/util"
)

var (
	w WorkerOptions
)

type WorkerOptions struct {
	port          *int
	ip            *string
	controllerUrl *string
	signingKey    *string
}

func init() {
	cmdWorker.Run = runWorker // break init cycle
	w.port = cmdWorker.Flag.Int("port", 9866, "http listen port for reconstruction orders and metrics")
	w.ip = cmdWorker.Flag.String("ip", "localhost", "address other nodes reach this worker at")
	w.controllerUrl = cmdWorker.Flag.String("controller", "", "controller endpoint for corruption reports")
	w.signingKey = cmdWorker.Flag.String("key", "", "signing key for block access tokens, empty disables tokens")
}

var cmdWorker = &Command{
	UsageLine: "worker -port=9866 -controller=http://controller:9870/corrupt",
	Short:     "start a striped block reconstruction worker",
	Long: `start a long lived worker that accepts striped block reconstruction
  orders from the cluster controller, rebuilds the missing internal blocks
  from the surviving peers and ships them to the replacement peers.

  The reconstruction.toml configuration file tunes the read and task pools.

  `,
}

func runWorker(cmd *Command, args []string) bool {

	util.LoadConfiguration("reconstruction", false)
	config := util.GetViper()

	reportUrl := *w.controllerUrl
	if reportUrl == "" {
		reportUrl = config.GetString("controller.report-url")
	}
	var controller cluster.Client
	if reportUrl != "" {
		controller = cluster.NewHTTPClient(reportUrl)
	}

	sourceDescriptor := fmt.Sprintf("%s:%d", *w.ip, *w.port)
	worker := reconstruction.NewWorker(config, controller, security.SigningKey(*w.signingKey), sourceDescriptor)
	defer worker.Shutdown()

	router := mux.NewRouter()
	server.NewReconstructionServer(router, worker)

	listenAddress := fmt.Sprintf(":%d", *w.port)
	glog.V(0).Infof("Start StripeFS worker %s at %s", util.Version, listenAddress)

	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		glog.Fatalf("worker server fails to serve: %v", err)
	}

	return true
}
