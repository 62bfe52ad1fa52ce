package util

const Version = "0.1"
