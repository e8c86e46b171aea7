// Package main provides a CLI tool for generating university signing keys and
// degree signatures in the tagged formats the verifier accepts.
// Keys are printed to stdout; keep the private half out of the ledger.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"credverify/internal/credential/handler"
	"credverify/internal/credential/signature"
)

type signOutput struct {
	Algorithm string `json:"algorithm"`
	Signature string `json:"signature"`
	Data      string `json:"degree_data"`
}

func main() {
	genCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	genAlg := genCmd.String("alg", signature.AlgEd25519, "Key algorithm: ed25519 or dilithium3")
	genJSON := genCmd.Bool("json", false, "Output as JSON")

	signCmd := flag.NewFlagSet("sign", flag.ExitOnError)
	signAlg := signCmd.String("alg", signature.AlgEd25519, "Key algorithm: ed25519 or dilithium3")
	signKey := signCmd.String("key", "", "Base64 private key from 'keygen generate'")
	signData := signCmd.String("data", "", "Degree data to sign")
	signJSON := signCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		_ = genCmd.Parse(os.Args[2:])
		generate(*genAlg, *genJSON)
	case "sign":
		_ = signCmd.Parse(os.Args[2:])
		sign(*signAlg, *signKey, *signData, *signJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`keygen - Generate university keys and degree signatures for credverify

Usage:
  keygen <command> [flags]

Commands:
  generate  Generate a key pair (public key goes to AddAUniversityPublicKey)
  sign      Sign degree data with a private key

Examples:
  # Generate an Ed25519 key pair
  keygen generate

  # Generate a post-quantum key pair as JSON
  keygen generate -alg dilithium3 -json

  # Sign degree data
  keygen sign -key "<private key>" -data '{"degree":"BSc"}'

Use "keygen <command> -h" for more information about a command.`)
}

func generate(alg string, jsonOutput bool) {
	kp, err := signature.GenerateKeyPair(alg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(kp)
		return
	}
	fmt.Println("University Key Pair")
	fmt.Println("===================")
	fmt.Printf("Algorithm:   %s\n", kp.Algorithm)
	fmt.Println()
	fmt.Println("Public Key:")
	fmt.Println(kp.PublicKey)
	fmt.Println()
	fmt.Println("Private Key:")
	fmt.Println(kp.PrivateKey)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  {\"nameOfTransaction\":\"AddAUniversityPublicKey\",\"argsToBePassed\":\"<uni>%s%s\"}\n",
		handler.ArgSeparator, kp.PublicKey)
}

func sign(alg, key, data string, jsonOutput bool) {
	if strings.TrimSpace(key) == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required")
		os.Exit(1)
	}
	sig, err := signature.Sign(alg, key, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(signOutput{Algorithm: alg, Signature: sig, Data: data})
		return
	}
	fmt.Println(sig)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
