package rpcservice

import (
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

// protoSchema defines the wire shape of the compile service entirely
// in-memory: one request message, one response message, one unary
// method. There is no .proto file on disk and no generated Go stubs --
// the descriptor is parsed at process start and every message is
// built and read through protoreflect's dynamic.Message, the same
// technique the teacher's grpc builtins use to expose arbitrary proto
// services without codegen.
const protoSchema = `
syntax = "proto3";

package sclc.rpc;

message Diagnostic {
  string code = 1;
  int32 line = 2;
  string message = 3;
}

message CompileRequest {
  string source = 1;
  string config_yaml = 2;
}

message CompileResponse {
  string assembly = 1;
  repeated Diagnostic diagnostics = 2;
}

service CompilerService {
  rpc Compile(CompileRequest) returns (CompileResponse);
}
`

const protoFileName = "sclc_rpc.proto"

// parseSchema parses protoSchema into a FileDescriptor using an
// in-memory accessor, so no filesystem path is ever involved.
func parseSchema() (*desc.FileDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			protoFileName: protoSchema,
		}),
	}
	fds, err := parser.ParseFiles(protoFileName)
	if err != nil {
		return nil, err
	}
	return fds[0], nil
}
