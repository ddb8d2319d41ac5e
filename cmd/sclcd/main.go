// Command sclcd runs the compile service as a standalone gRPC daemon,
// listening on a TCP address and serving CompilerService.Compile until
// it receives an interrupt, at which point it drains in-flight
// requests via GracefulStop the same way the reference grpcServe/
// grpcStop builtins drive a *grpc.Server.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/tealc-lang/sclc/internal/cache"
	"github.com/tealc-lang/sclc/internal/rpcservice"
)

func main() {
	addr := ":7632"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	cacheDB := os.Getenv("SCLCD_CACHE_DB")
	if cacheDB == "" {
		cacheDB = ":memory:"
	}
	store, err := cache.Open(cacheDB)
	if err != nil {
		log.Fatalf("opening compile cache: %s", err)
	}
	defer store.Close()

	server, err := rpcservice.NewServer(store)
	if err != nil {
		log.Fatalf("building compile service: %s", err)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listening on %s: %s", addr, err)
	}

	grpcServer := grpc.NewServer()
	server.Register(grpcServer)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("shutting down, draining in-flight compiles")
		grpcServer.GracefulStop()
	}()

	fmt.Printf("sclcd listening on %s\n", addr)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("serve: %s", err)
	}
}
