// Package server provides JSON/RESTful RPC service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/metrics"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/rpc/restapi"
	"github.com/anyswap/CrossChain-Settlement/rpc/rpcapi"
)

const defaultMaxRequestsPer = 10

// StartAPIServer start api server
func StartAPIServer() {
	apiServer := params.GetConfig().APIServer
	if apiServer == nil {
		log.Info("api server is not configured")
		return
	}
	apiPort := apiServer.Port

	log.Info("JSON RPC service listen and serving", "port", apiPort, "allowedOrigins", apiServer.AllowedOrigins)
	svr := http.Server{
		Addr:         fmt.Sprintf(":%v", apiPort),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second,
		Handler:      NewHandler(apiServer),
	}
	go func() {
		if err := svr.ListenAndServe(); err != nil {
			if errors.Is(err, http.ErrServerClosed) && utils.IsCleanuping() {
				return
			}
			log.Fatal("ListenAndServe error", "err", err)
		}
	}()

	utils.TopWaitGroup.Add(1)
	go utils.WaitAndCleanup(func() { doCleanup(&svr) })
}

// NewHandler routes with cors and rate limit
func NewHandler(apiServer *params.APIServerConfig) http.Handler {
	router := mux.NewRouter()
	initSettleRouter(router)

	maxRequestsPer := apiServer.MaxRequestsPer
	if maxRequestsPer <= 0 {
		maxRequestsPer = defaultMaxRequestsPer
	}

	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST"}),
	}
	if len(apiServer.AllowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(apiServer.AllowedOrigins),
		)
	}

	lmt := tollbooth.NewLimiter(maxRequestsPer,
		&limiter.ExpirableOptions{
			DefaultExpirationTTL: 600 * time.Second,
		},
	)
	return tollbooth.LimitHandler(lmt, handlers.CORS(corsOptions...)(router))
}

func doCleanup(svr *http.Server) {
	defer utils.TopWaitGroup.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := svr.Shutdown(ctx); err != nil {
		log.Error("Server Shutdown failed", "err", err)
	}
	log.Info("Close http server success")
}

func initSettleRouter(r *mux.Router) {
	rpcserver := rpc.NewServer()
	rpcserver.RegisterCodec(rpcjson.NewCodec(), "application/json")
	rpcserver.RegisterAfterFunc(func(i *rpc.RequestInfo) {
		metrics.APIRequestsTotal.WithLabelValues(i.Method).Inc()
	})
	err := rpcserver.RegisterService(new(rpcapi.SettleAPI), "settle")
	if err != nil {
		log.Fatal("start rpc service failed", "err", err)
	}

	r.Handle("/rpc", rpcserver)
	r.Handle("/metrics", promhttp.Handler())

	rest := r.NewRoute().Subrouter()
	rest.Use(countRESTRequest)
	rest.HandleFunc("/versioninfo", restapi.VersionInfoHandler).Methods("GET")
	rest.HandleFunc("/serverinfo", restapi.ServerInfoHandler).Methods("GET")
	rest.HandleFunc("/nonce", restapi.NonceHandler).Methods("GET")
	rest.HandleFunc("/fee/collected", restapi.CollectedFeeHandler).Methods("GET")
	rest.HandleFunc("/fee/ledger", restapi.FeeLedgerHandler).Methods("GET")
	rest.HandleFunc("/fee/quote/{dstchainid}", restapi.QuoteCryptoFeeHandler).Methods("GET")
	rest.HandleFunc("/integrator/{address}", restapi.IntegratorInfoHandler).Methods("GET")
	rest.HandleFunc("/bounds/{token}", restapi.TokenBoundsHandler).Methods("GET")
	rest.HandleFunc("/routers", restapi.AvailableRoutersHandler).Methods("GET")
	rest.HandleFunc("/request/{requestid}", restapi.RequestHandler).Methods("GET")
	rest.HandleFunc("/settlement/{requestid}", restapi.SettlementHandler).Methods("GET")
}

func countRESTRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				metrics.APIRequestsTotal.WithLabelValues(tpl).Inc()
			}
		}
		next.ServeHTTP(w, r)
	})
}
