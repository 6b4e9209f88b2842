// Command modloader-cachekey encrypts or decrypts a cache encryption key
// value with a shared secret, the same interactive prompt-and-print flow
// as the passwd_crypt utility this is adapted from, repointed at
// cachestore.Cipher instead of exporter credentials.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	kingpin "github.com/alecthomas/kingpin/v2"

	"github.com/peekjef72/modloader/cachestore"
)

func main() {
	app := kingpin.New("modloader-cachekey", "encrypt or decrypt a modloader cacheEncryptionKey value with a shared secret.")
	var (
		decrypt = app.Flag("decrypt", "Decrypt the provided value instead of encrypting.").Short('d').Default("false").Bool()
		hexa    = app.Flag("hexa", "Encode/decode in hex instead of base64.").Short('x').Default("false").Bool()
	)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	fmt.Println("give the shared secret (any non-empty passphrase; it is hashed into an AES-256 key)")
	key := readLine("enter secret: ")

	cipher, err := cachestore.NewCipher(key)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}

	if !*decrypt {
		value := readLine("enter value to encrypt: ")
		fmt.Println("Encrypting...")
		encoded := cipher.Encrypt([]byte(value), !*hexa)
		fmt.Printf("Encrypted value: %s\n", encoded)
		fmt.Printf("Config snippet: cacheEncryptionKey: 'encrypted/%s'\n", encoded)
	} else {
		encoded := readLine("enter encrypted value: ")
		fmt.Println("Decrypting...")
		plaintext, err := cipher.Decrypt(encoded, !*hexa)
		if err != nil {
			fmt.Printf("Error decrypting value: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("Decrypted value: %s\n", string(plaintext))
	}
}

func readLine(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	res, _ := reader.ReadString('\n')
	return strings.TrimSpace(res)
}
