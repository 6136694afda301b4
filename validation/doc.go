// Package validation checks configuration structs using go-playground
// validator struct tags and reports failures as an INVALID_CONFIG
// AppError naming the dotted mapstructure path of each bad field.
//
//	type ClientConfig struct {
//	    Gateway string `mapstructure:"gateway" validate:"required,url"`
//	    Server  string `mapstructure:"server" validate:"required,hostname_port"`
//	}
//	err := validation.Validate(cfg)
package validation
