// Package clientcli is a client library for the imgtransfer gateway.
//
// It lists the bucket, uploads images as multipart forms, downloads them to
// a file or a stream, and deletes them. Profiles in a YAML file let the CLI
// switch between gateways.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:3030"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./cat.png",
//	})
//
// Non-2xx responses come back as *ServerError. A 404 matches ErrNotFound:
//
//	if errors.Is(err, clientcli.ErrNotFound) {
//		// ...
//	}
//
// # Profile Configuration
//
//	profiles, err := clientcli.LoadProfiles(clientcli.DefaultProfilesPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := profiles.Resolve("staging")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: profile.Endpoint})
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
