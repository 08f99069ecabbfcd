package main

import (
	survey "gopkg.in/AlecAivazis/survey.v1"
)

func askSimpleConfirm(message string) bool {
	var resp bool
	prompt := &survey.Confirm{
		Message: message,
	}
	err := survey.AskOne(prompt, &resp, nil)
	if err != nil {
		return false
	}
	return resp
}
